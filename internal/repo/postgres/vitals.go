package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/havenline/sensorvitals/internal/domain"
)

func (s *Store) AppendVital(ctx context.Context, v *domain.SensorVital) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	transitions, err := json.Marshal(v.Transitions)
	if err != nil {
		return fmt.Errorf("encode transitions: %w", err)
	}
	// created_at defaults to NOW() in the schema; reading it back keeps the
	// returned struct on the DB clock.
	err = s.pool.QueryRow(ctx,
		`INSERT INTO sensor_vitals
		   (id, locationid, missed_count, low_battery, door_last_seen_at, reset_reason, state_transitions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		v.ID, v.LocationID, v.MissedCount, v.LowBattery, v.DoorLastSeenAt, v.ResetReason, transitions,
	).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vital: %w", err)
	}
	return nil
}

func (s *Store) LatestVital(ctx context.Context, id domain.LocationID) (*domain.SensorVital, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, locationid, missed_count, low_battery, door_last_seen_at,
		        reset_reason, state_transitions, created_at
		   FROM sensor_vitals
		  WHERE locationid = $1
		  ORDER BY created_at DESC
		  LIMIT 1`, id)

	var v domain.SensorVital
	var transitions []byte
	err := row.Scan(&v.ID, &v.LocationID, &v.MissedCount, &v.LowBattery,
		&v.DoorLastSeenAt, &v.ResetReason, &transitions, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest vital: %w", err)
	}
	if err := json.Unmarshal(transitions, &v.Transitions); err != nil {
		return nil, fmt.Errorf("decode transitions: %w", err)
	}
	return &v, nil
}
