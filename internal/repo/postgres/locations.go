package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/havenline/sensorvitals/internal/domain"
)

const locationColumns = `
	l.locationid, l.display_name, l.door_coreid, l.radar_coreid, l.radar_type,
	l.siren_coreid, l.movement_threshold, l.initial_timer, l.duration_timer,
	l.stillness_timer, l.reminder_timer, l.fallback_timer, l.is_active,
	l.firmware_state_machine, l.sent_vitals_alert_at, l.sent_low_battery_alert_at,
	c.id, c.display_name, c.is_active, c.responder_phone_numbers,
	c.heartbeat_phone_numbers, c.fallback_phone_numbers, c.from_phone_number,
	c.language, c.alert_api_key`

const locationFrom = `
	  FROM locations l
	  JOIN clients c ON c.id = l.client_id`

func scanLocation(row pgx.Row) (*domain.Location, error) {
	var loc domain.Location
	var cl domain.Client
	err := row.Scan(
		&loc.ID, &loc.DisplayName, &loc.DoorCoreID, &loc.RadarCoreID, &loc.RadarType,
		&loc.SirenCoreID, &loc.MovementThreshold, &loc.InitialTimer, &loc.DurationTimer,
		&loc.StillnessTimer, &loc.ReminderTimer, &loc.FallbackTimer, &loc.IsActive,
		&loc.FirmwareStateMachine, &loc.SentVitalsAlertAt, &loc.SentLowBatteryAlertAt,
		&cl.ID, &cl.DisplayName, &cl.IsActive, &cl.ResponderPhones,
		&cl.HeartbeatRecipients, &cl.FallbackPhones, &cl.FromPhone,
		&cl.Language, &cl.AlertAPIKey,
	)
	if err != nil {
		return nil, err
	}
	loc.Client = &cl
	return &loc, nil
}

func (s *Store) ActiveFirmwareLocations(ctx context.Context) ([]*domain.Location, error) {
	q := `SELECT` + locationColumns + locationFrom + `
	 WHERE l.firmware_state_machine AND l.is_active AND c.is_active
	 ORDER BY l.locationid`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list firmware locations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *Store) locationWhere(ctx context.Context, clause string, arg any) (*domain.Location, error) {
	q := `SELECT` + locationColumns + locationFrom + ` WHERE ` + clause
	loc, err := scanLocation(s.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

func (s *Store) LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error) {
	return s.locationWhere(ctx, `l.locationid = $1`, id)
}

func (s *Store) LocationByDeviceCoreID(ctx context.Context, coreID string) (*domain.Location, error) {
	return s.locationWhere(ctx, `$1 IN (l.door_coreid, l.radar_coreid)`, coreID)
}

func (s *Store) LocationBySirenCoreID(ctx context.Context, coreID string) (*domain.Location, error) {
	return s.locationWhere(ctx, `l.siren_coreid = $1`, coreID)
}

func (s *Store) UpdateSentVitalsAlert(ctx context.Context, id domain.LocationID, sentAt *time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE locations SET sent_vitals_alert_at = $2 WHERE locationid = $1`,
		id, sentAt)
	if err != nil {
		return fmt.Errorf("update sent_vitals_alert_at: %w", err)
	}
	return nil
}
