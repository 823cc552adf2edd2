package vitals

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/messages"
	"github.com/havenline/sensorvitals/internal/notify"
	"github.com/havenline/sensorvitals/internal/repo"
)

type SweeperConfig struct {
	DoorThreshold       time.Duration
	RadarThreshold      time.Duration
	SubsequentVitalsGap time.Duration
	Interval            time.Duration
}

// Sweeper periodically compares every active location's last-seen timestamps
// against the configured thresholds and drives disconnection, reminder and
// reconnection messages.
type Sweeper struct {
	logger    *zap.Logger
	locations repo.LocationStore
	vitals    repo.VitalStore
	notifier  notify.Notifier
	cfg       SweeperConfig
}

func NewSweeper(
	logger *zap.Logger,
	locations repo.LocationStore,
	vitals repo.VitalStore,
	notifier notify.Notifier,
	cfg SweeperConfig,
) *Sweeper {
	return &Sweeper{
		logger:    logger,
		locations: locations,
		vitals:    vitals,
		notifier:  notifier,
		cfg:       cfg,
	}
}

type sweepAction int

const (
	actionNone sweepAction = iota
	actionDisconnect
	actionReminder
	actionReconnect
)

// sweepResult is one location's outcome. Err never aborts the sweep for the
// other locations; failures are reported after the fan-out.
type sweepResult struct {
	LocationID domain.LocationID
	Action     sweepAction
	Err        error
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper_stopped")
			return
		case <-t.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce evaluates every active firmware-state-machine location once.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now, err := s.locations.CurrentTime(ctx)
	if err != nil {
		s.logger.Error("sweep_clock_error", zap.Error(err))
		return
	}
	locs, err := s.locations.ActiveFirmwareLocations(ctx)
	if err != nil {
		s.logger.Error("sweep_list_error", zap.Error(err))
		return
	}

	results := make([]sweepResult, 0, len(locs))
	for _, loc := range locs {
		if !loc.IsActive || loc.Client == nil || !loc.Client.IsActive {
			continue
		}
		results = append(results, s.checkLocation(ctx, now, loc))
	}

	var disconnections, reminders, reconnections, failures int
	for _, r := range results {
		switch r.Action {
		case actionDisconnect:
			disconnections++
		case actionReminder:
			reminders++
		case actionReconnect:
			reconnections++
		}
		if r.Err != nil {
			failures++
			s.logger.Error("heartbeat_check_error",
				zap.String("locationid", string(r.LocationID)),
				zap.Error(r.Err),
			)
		}
	}
	s.logger.Debug("sweep_complete",
		zap.Int("locations", len(results)),
		zap.Int("disconnections", disconnections),
		zap.Int("reminders", reminders),
		zap.Int("reconnections", reconnections),
		zap.Int("failures", failures),
	)
}

func (s *Sweeper) checkLocation(ctx context.Context, now time.Time, loc *domain.Location) sweepResult {
	res := sweepResult{LocationID: loc.ID}

	vital, err := s.vitals.LatestVital(ctx, loc.ID)
	if err != nil {
		res.Err = err
		return res
	}
	if vital == nil {
		// no vitals ever received
		return res
	}

	radarDelay := now.Sub(vital.CreatedAt)
	doorDelay := now.Sub(vital.DoorLastSeenAt)
	radarExceeded := radarDelay > s.cfg.RadarThreshold
	doorExceeded := doorDelay > s.cfg.DoorThreshold

	switch {
	case doorExceeded || radarExceeded:
		if loc.SentVitalsAlertAt == nil {
			if doorExceeded {
				s.logger.Warn("door_sensor_down",
					zap.String("locationid", string(loc.ID)),
					zap.Duration("delay", doorDelay),
				)
			}
			if radarExceeded {
				s.logger.Warn("radar_sensor_down",
					zap.String("locationid", string(loc.ID)),
					zap.Duration("delay", radarDelay),
				)
			}
			if err := s.locations.UpdateSentVitalsAlert(ctx, loc.ID, &now); err != nil {
				res.Err = err
				return res
			}
			res.Action = actionDisconnect
			res.Err = s.sendAlert(ctx, loc, messages.DisconnectionInitial)
			return res
		}
		if now.Sub(*loc.SentVitalsAlertAt) > s.cfg.SubsequentVitalsGap {
			if err := s.locations.UpdateSentVitalsAlert(ctx, loc.ID, &now); err != nil {
				res.Err = err
				return res
			}
			res.Action = actionReminder
			res.Err = s.sendAlert(ctx, loc, messages.DisconnectionReminder)
			return res
		}
		// inside the suppression window
		return res

	case loc.SentVitalsAlertAt != nil:
		s.logger.Info("sensor_reconnected",
			zap.String("locationid", string(loc.ID)),
			zap.String("reset_reason", vital.ResetReason),
		)
		if err := s.locations.UpdateSentVitalsAlert(ctx, loc.ID, nil); err != nil {
			res.Err = err
			return res
		}
		res.Action = actionReconnect
		res.Err = s.sendAlert(ctx, loc, messages.Reconnection)
		return res
	}

	return res
}

// sendAlert notifies the client's responder numbers and heartbeat recipients.
func (s *Sweeper) sendAlert(ctx context.Context, loc *domain.Location, key messages.Key) error {
	body := messages.Render(key, loc.Client.Language, loc.DisplayName, string(loc.ID))
	recipients := append(append([]string{}, loc.Client.ResponderPhones...), loc.Client.HeartbeatRecipients...)
	return notify.Fanout(ctx, s.notifier, recipients, loc.Client.FromPhone, body)
}
