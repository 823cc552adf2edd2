package repo

import (
	"context"
	"time"

	"github.com/havenline/sensorvitals/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later. Lookup methods return
// nil, nil when no row matches.

type LocationStore interface {
	// CurrentTime reads the store's clock. All threshold math uses this
	// clock, not the process clock, so sweeper and ingestion agree on "now".
	CurrentTime(ctx context.Context) (time.Time, error)
	// ActiveFirmwareLocations returns active locations owned by active
	// clients and running the firmware state machine, with the client
	// attached. Callers re-check the active flags before acting; rows can
	// be deactivated between the read and the decision.
	ActiveFirmwareLocations(ctx context.Context) ([]*domain.Location, error)
	LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error)
	// LocationByDeviceCoreID matches the door or radar core identifier.
	LocationByDeviceCoreID(ctx context.Context, coreID string) (*domain.Location, error)
	LocationBySirenCoreID(ctx context.Context, coreID string) (*domain.Location, error)
	// UpdateSentVitalsAlert sets sent_vitals_alert_at; nil clears it.
	UpdateSentVitalsAlert(ctx context.Context, id domain.LocationID, sentAt *time.Time) error
}

type VitalStore interface {
	AppendVital(ctx context.Context, v *domain.SensorVital) error
	LatestVital(ctx context.Context, id domain.LocationID) (*domain.SensorVital, error)
}

// Tx is an explicit transaction scope. Operations that must see a consistent
// snapshot and commit or roll back together go through it; a Tx that is
// neither committed nor rolled back holds its connection, so every Begin must
// be paired with one of the two.
type Tx interface {
	LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error)
	// TouchLowBatteryAlert sets sent_low_battery_alert_at to the given time.
	TouchLowBatteryAlert(ctx context.Context, id domain.LocationID, at time.Time) error
	// LatestSession returns the most recent session for a location.
	LatestSession(ctx context.Context, id domain.LocationID) (*domain.Session, error)
	// SaveSession upserts the session and refreshes its updated_at.
	SaveSession(ctx context.Context, s *domain.Session) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}
