package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/repo"
)

type txScope struct {
	tx pgx.Tx
}

func (s *Store) Begin(ctx context.Context) (repo.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &txScope{tx: tx}, nil
}

func (t *txScope) LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error) {
	q := `SELECT` + locationColumns + locationFrom + ` WHERE l.locationid = $1`
	loc, err := scanLocation(t.tx.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

func (t *txScope) TouchLowBatteryAlert(ctx context.Context, id domain.LocationID, at time.Time) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE locations SET sent_low_battery_alert_at = $2 WHERE locationid = $1`,
		id, at)
	if err != nil {
		return fmt.Errorf("update sent_low_battery_alert_at: %w", err)
	}
	return nil
}

func (t *txScope) LatestSession(ctx context.Context, id domain.LocationID) (*domain.Session, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT id, locationid, phone_number, alert_type, chatbot_state,
		        incident_type, notes, responded_at, created_at, updated_at
		   FROM sessions
		  WHERE locationid = $1
		  ORDER BY created_at DESC
		  LIMIT 1`, id)

	var s domain.Session
	err := row.Scan(&s.ID, &s.LocationID, &s.ResponderPhone, &s.AlertType,
		&s.ChatbotState, &s.IncidentType, &s.Notes, &s.RespondedAt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return &s, nil
}

func (t *txScope) SaveSession(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := t.tx.QueryRow(ctx,
		`INSERT INTO sessions
		   (id, locationid, phone_number, alert_type, chatbot_state,
		    incident_type, notes, responded_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()), NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   phone_number = EXCLUDED.phone_number,
		   alert_type = EXCLUDED.alert_type,
		   chatbot_state = EXCLUDED.chatbot_state,
		   incident_type = EXCLUDED.incident_type,
		   notes = EXCLUDED.notes,
		   responded_at = EXCLUDED.responded_at,
		   updated_at = NOW()
		 RETURNING updated_at`,
		s.ID, s.LocationID, s.ResponderPhone, s.AlertType, s.ChatbotState,
		s.IncidentType, s.Notes, s.RespondedAt, nullableTime(s.CreatedAt),
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (t *txScope) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *txScope) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
