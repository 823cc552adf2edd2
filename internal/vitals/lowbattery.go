package vitals

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/messages"
	"github.com/havenline/sensorvitals/internal/notify"
	"github.com/havenline/sensorvitals/internal/repo"
)

// Throttler sends a low-battery notice at most once per cooldown window.
// Each call runs in its own transaction; the refreshed timestamp only counts
// once the commit succeeds.
type Throttler struct {
	logger   *zap.Logger
	clock    repo.LocationStore
	db       repo.TxBeginner
	notifier notify.Notifier
	timeout  time.Duration
}

func NewThrottler(
	logger *zap.Logger,
	clock repo.LocationStore,
	db repo.TxBeginner,
	notifier notify.Notifier,
	timeout time.Duration,
) *Throttler {
	return &Throttler{
		logger:   logger,
		clock:    clock,
		db:       db,
		notifier: notifier,
		timeout:  timeout,
	}
}

// MaybeAlert sends a low-battery notice for the location unless one went out
// within the cooldown window.
func (t *Throttler) MaybeAlert(ctx context.Context, id domain.LocationID) error {
	now, err := t.clock.CurrentTime(ctx)
	if err != nil {
		return fmt.Errorf("low battery clock: %w", err)
	}

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("low battery begin: %w", err)
	}

	if err := t.alertInTx(ctx, tx, id, now); err != nil {
		repo.RollbackAndLog(ctx, tx, t.logger, "low_battery_alert", err)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("low battery commit: %w", err)
	}
	return nil
}

func (t *Throttler) alertInTx(ctx context.Context, tx repo.Tx, id domain.LocationID, now time.Time) error {
	loc, err := tx.LocationByID(ctx, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("no location with id %s", id)
	}

	if !loc.IsActive || loc.Client == nil || !loc.Client.IsActive {
		return nil
	}
	if loc.SentLowBatteryAlertAt != nil && now.Sub(*loc.SentLowBatteryAlertAt) < t.timeout {
		// still inside the cooldown window
		return nil
	}

	t.logger.Warn("low_battery_alert",
		zap.String("locationid", string(loc.ID)),
	)

	body := messages.Render(messages.LowBatteryInitial, loc.Client.Language, loc.DisplayName, string(loc.ID))
	recipients := append(append([]string{}, loc.Client.ResponderPhones...), loc.Client.HeartbeatRecipients...)
	if err := notify.Fanout(ctx, t.notifier, recipients, loc.Client.FromPhone, body); err != nil {
		// best-effort dispatch; a carrier failure must not hold the
		// timestamp refresh hostage
		t.logger.Error("low_battery_dispatch_error",
			zap.String("locationid", string(loc.ID)),
			zap.Error(err),
		)
	}

	return tx.TouchLowBatteryAlert(ctx, id, now)
}
