// Package escalation drives the fallback path for sirens that nobody has
// responded to: when the external siren unit reports an escalation, the most
// recent alert session is re-examined inside a transaction and the client's
// fallback numbers are notified directly.
package escalation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/messages"
	"github.com/havenline/sensorvitals/internal/notify"
	"github.com/havenline/sensorvitals/internal/repo"
)

type Handler struct {
	logger    *zap.Logger
	locations repo.LocationStore
	db        repo.TxBeginner
	notifier  notify.Notifier
}

func NewHandler(
	logger *zap.Logger,
	locations repo.LocationStore,
	db repo.TxBeginner,
	notifier notify.Notifier,
) *Handler {
	return &Handler{
		logger:    logger,
		locations: locations,
		db:        db,
		notifier:  notifier,
	}
}

// ErrUnknownCoreID reports a siren core identifier no location is configured
// with. Callers log it and still answer transport-success.
type ErrUnknownCoreID struct{ CoreID string }

func (e ErrUnknownCoreID) Error() string {
	return fmt.Sprintf("no location matches the coreID %s", e.CoreID)
}

// HandleEscalated processes one siren escalation event. A location with no
// session is a no-op: there is nothing to escalate.
func (h *Handler) HandleEscalated(ctx context.Context, sirenCoreID string) error {
	loc, err := h.locations.LocationBySirenCoreID(ctx, sirenCoreID)
	if err != nil {
		return fmt.Errorf("siren lookup: %w", err)
	}
	if loc == nil {
		return ErrUnknownCoreID{CoreID: sirenCoreID}
	}
	if loc.Client == nil {
		h.logger.Error("location_missing_client",
			zap.String("locationid", string(loc.ID)),
			zap.String("siren_coreid", sirenCoreID),
		)
		return nil
	}

	tx, err := h.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("escalation begin: %w", err)
	}

	if err := h.escalateInTx(ctx, tx, loc); err != nil {
		repo.RollbackAndLog(ctx, tx, h.logger, "siren_escalated", err)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("escalation commit: %w", err)
	}
	return nil
}

func (h *Handler) escalateInTx(ctx context.Context, tx repo.Tx, loc *domain.Location) error {
	session, err := tx.LatestSession(ctx, loc.ID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	// mark escalation activity on the session
	if err := tx.SaveSession(ctx, session); err != nil {
		return err
	}

	h.logger.Info("siren_escalated",
		zap.String("locationid", string(loc.ID)),
		zap.String("session_id", session.ID),
	)

	body := messages.Render(messages.SirenFallback, loc.Client.Language, loc.DisplayName, string(loc.ID))
	if err := notify.Fanout(ctx, h.notifier, loc.Client.FallbackPhones, loc.Client.FromPhone, body); err != nil {
		h.logger.Error("fallback_dispatch_error",
			zap.String("locationid", string(loc.ID)),
			zap.Error(err),
		)
	}
	return nil
}
