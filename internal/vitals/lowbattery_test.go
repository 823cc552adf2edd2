package vitals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/repo"
	"github.com/havenline/sensorvitals/internal/repo/memory"
)

func seedLowBatteryLocation(s *memory.Store) *domain.Location {
	loc := testLocation("A")
	s.PutLocation(loc)
	return loc
}

func TestThrottler_SendsOncePerWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Now = func() time.Time { return testNow }
	seedLowBatteryLocation(store)
	nt := &recordingNotifier{}
	th := NewThrottler(zap.NewNop(), store, store, nt, 24*time.Hour)

	require.NoError(t, th.MaybeAlert(ctx, "A"))
	assert.Len(t, nt.sent, 2) // responder + heartbeat recipient

	loc, err := store.LocationByID(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, loc.SentLowBatteryAlertAt)
	assert.True(t, loc.SentLowBatteryAlertAt.Equal(testNow))

	// second call inside the cooldown window: no new notice
	require.NoError(t, th.MaybeAlert(ctx, "A"))
	assert.Len(t, nt.sent, 2)

	// past the window: one more notice
	store.Now = func() time.Time { return testNow.Add(24 * time.Hour) }
	require.NoError(t, th.MaybeAlert(ctx, "A"))
	assert.Len(t, nt.sent, 4)
	loc, _ = store.LocationByID(ctx, "A")
	assert.True(t, loc.SentLowBatteryAlertAt.Equal(testNow.Add(24*time.Hour)))
}

func TestThrottler_SkipsInactive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Now = func() time.Time { return testNow }
	loc := testLocation("A")
	loc.IsActive = false
	store.PutLocation(loc)
	nt := &recordingNotifier{}
	th := NewThrottler(zap.NewNop(), store, store, nt, time.Hour)

	require.NoError(t, th.MaybeAlert(ctx, "A"))
	assert.Empty(t, nt.sent)
	got, _ := store.LocationByID(ctx, "A")
	assert.Nil(t, got.SentLowBatteryAlertAt)
}

func TestThrottler_UnknownLocationFails(t *testing.T) {
	store := memory.New()
	th := NewThrottler(zap.NewNop(), store, store, &recordingNotifier{}, time.Hour)
	err := th.MaybeAlert(context.Background(), "nope")
	require.Error(t, err)
}

// failingTxDB hands out transactions whose timestamp write always fails.
// rollbackErr, when set, makes the rollback itself fail too.
type failingTxDB struct {
	loc         *domain.Location
	rolledBack  bool
	rollbackErr error
}

func (f *failingTxDB) Begin(ctx context.Context) (repo.Tx, error) { return (*failingTx)(f), nil }

type failingTx failingTxDB

func (t *failingTx) LocationByID(ctx context.Context, id domain.LocationID) (*domain.Location, error) {
	return t.loc, nil
}

func (t *failingTx) TouchLowBatteryAlert(ctx context.Context, id domain.LocationID, at time.Time) error {
	return errors.New("deadlock detected")
}

func (t *failingTx) LatestSession(ctx context.Context, id domain.LocationID) (*domain.Session, error) {
	return nil, nil
}

func (t *failingTx) SaveSession(ctx context.Context, s *domain.Session) error { return nil }

func (t *failingTx) Commit(ctx context.Context) error { return errors.New("commit after failure") }

func (t *failingTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return t.rollbackErr
}

func TestThrottler_RollsBackAndLogsOnFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := memory.New()
	store.Now = func() time.Time { return testNow }
	db := &failingTxDB{loc: testLocation("A")}
	th := NewThrottler(zap.New(core), store, db, &recordingNotifier{}, time.Hour)

	err := th.MaybeAlert(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, db.rolledBack, "expected rollback")

	entries := logs.FilterMessage("transaction_rolled_back").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "low_battery_alert", entries[0].ContextMap()["op"])
}

func TestThrottler_RollbackFailureLogsBothErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := memory.New()
	store.Now = func() time.Time { return testNow }
	db := &failingTxDB{loc: testLocation("A"), rollbackErr: errors.New("connection gone")}
	th := NewThrottler(zap.New(core), store, db, &recordingNotifier{}, time.Hour)

	err := th.MaybeAlert(context.Background(), "A")
	require.Error(t, err)
	assert.True(t, db.rolledBack, "rollback must still be attempted")

	// the rollback failure and the originating write failure are logged as
	// two distinct fields of one entry
	assert.Empty(t, logs.FilterMessage("transaction_rolled_back").All())
	entries := logs.FilterMessage("rollback_error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "low_battery_alert", fields["op"])
	assert.Equal(t, "connection gone", fields["rollback_error"])
	assert.Equal(t, "deadlock detected", fields["cause"])
}
