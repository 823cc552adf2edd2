package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/repo"
)

// Store is an in-memory adapter for DB-less runs and tests. Its transactions
// stage writes and apply them on Commit, so rollback behaviour is observable.
type Store struct {
	// Now supplies the store clock. Tests pin it to a fixed time.
	Now func() time.Time

	mu        sync.RWMutex
	locations map[domain.LocationID]*domain.Location
	vitals    []*domain.SensorVital
	sessions  []*domain.Session
}

func New() *Store {
	return &Store{
		Now:       func() time.Time { return time.Now().UTC() },
		locations: make(map[domain.LocationID]*domain.Location),
		vitals:    make([]*domain.SensorVital, 0, 128),
		sessions:  make([]*domain.Session, 0, 16),
	}
}

// PutLocation seeds or replaces a location.
func (m *Store) PutLocation(loc *domain.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.ID] = loc
}

// PutSession seeds a session directly, bypassing any transaction.
func (m *Store) PutSession(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.sessions = append(m.sessions, s)
}

// Sessions returns a snapshot of all sessions for a location, newest first.
func (m *Store) Sessions(id domain.LocationID) []*domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Session, 0, 4)
	for _, s := range m.sessions {
		if s.LocationID == id {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ---- LocationStore ----

func (m *Store) CurrentTime(ctx context.Context) (time.Time, error) {
	return m.Now(), nil
}

func (m *Store) ActiveFirmwareLocations(ctx context.Context) ([]*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Location, 0, len(m.locations))
	for _, loc := range m.locations {
		if loc.FirmwareStateMachine && loc.IsActive && loc.Client != nil && loc.Client.IsActive {
			c := *loc
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locationByIDLocked(id), nil
}

func (m *Store) locationByIDLocked(id domain.LocationID) *domain.Location {
	loc, ok := m.locations[id]
	if !ok {
		return nil
	}
	c := *loc
	return &c
}

func (m *Store) LocationByDeviceCoreID(ctx context.Context, coreID string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DoorCoreID == coreID || loc.RadarCoreID == coreID {
			c := *loc
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Store) LocationBySirenCoreID(ctx context.Context, coreID string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.SirenCoreID == coreID {
			c := *loc
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Store) UpdateSentVitalsAlert(ctx context.Context, id domain.LocationID, sentAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc, ok := m.locations[id]; ok {
		loc.SentVitalsAlertAt = sentAt
	}
	return nil
}

// ---- VitalStore ----

func (m *Store) AppendVital(ctx context.Context, v *domain.SensorVital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = m.Now()
	}
	c := *v
	m.vitals = append(m.vitals, &c)
	return nil
}

func (m *Store) LatestVital(ctx context.Context, id domain.LocationID) (*domain.SensorVital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.SensorVital
	for _, v := range m.vitals {
		if v.LocationID != id {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

// ---- TxBeginner ----

type tx struct {
	store  *Store
	staged []func()
	done   bool
}

func (m *Store) Begin(ctx context.Context) (repo.Tx, error) {
	return &tx{store: m}, nil
}

func (t *tx) LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.locationByIDLocked(id), nil
}

func (t *tx) TouchLowBatteryAlert(ctx context.Context, id domain.LocationID, at time.Time) error {
	t.staged = append(t.staged, func() {
		if loc, ok := t.store.locations[id]; ok {
			ts := at
			loc.SentLowBatteryAlertAt = &ts
		}
	})
	return nil
}

func (t *tx) LatestSession(ctx context.Context, id domain.LocationID) (*domain.Session, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	var latest *domain.Session
	for _, s := range t.store.sessions {
		if s.LocationID != id {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (t *tx) SaveSession(ctx context.Context, s *domain.Session) error {
	c := *s
	c.UpdatedAt = t.store.Now()
	t.staged = append(t.staged, func() {
		for i, cur := range t.store.sessions {
			if cur.ID == c.ID {
				t.store.sessions[i] = &c
				return
			}
		}
		t.store.sessions = append(t.store.sessions, &c)
	})
	s.UpdatedAt = c.UpdatedAt
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, apply := range t.staged {
		apply()
	}
	t.staged = nil
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.done = true
	t.staged = nil
	return nil
}

var _ repo.LocationStore = (*Store)(nil)
var _ repo.VitalStore = (*Store)(nil)
var _ repo.TxBeginner = (*Store)(nil)
