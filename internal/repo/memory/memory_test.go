package memory

import (
	"context"
	"testing"
	"time"

	"github.com/havenline/sensorvitals/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
}

func TestMemoryStore_LatestVital(t *testing.T) {
	ctx := context.Background()
	s := New()

	if v, err := s.LatestVital(ctx, "loc-a"); err != nil || v != nil {
		t.Fatalf("expected nil, nil for no vitals, got %v, %v", v, err)
	}

	older := &domain.SensorVital{LocationID: "loc-a", ResetReason: "NONE", CreatedAt: fixedNow().Add(-2 * time.Minute)}
	newer := &domain.SensorVital{LocationID: "loc-a", ResetReason: "PIN_RESET", CreatedAt: fixedNow()}
	other := &domain.SensorVital{LocationID: "loc-b", CreatedAt: fixedNow()}
	for _, v := range []*domain.SensorVital{older, newer, other} {
		if err := s.AppendVital(ctx, v); err != nil {
			t.Fatalf("AppendVital: %v", err)
		}
		if v.ID == "" {
			t.Fatal("expected vital ID to be set")
		}
	}

	got, err := s.LatestVital(ctx, "loc-a")
	if err != nil {
		t.Fatalf("LatestVital: %v", err)
	}
	if got == nil || got.ResetReason != "PIN_RESET" {
		t.Fatalf("expected newest vital, got %+v", got)
	}
}

func TestMemoryStore_LocationLookups(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutLocation(&domain.Location{
		ID:                   "loc-a",
		DoorCoreID:           "door-1",
		RadarCoreID:          "radar-1",
		SirenCoreID:          "siren-1",
		IsActive:             true,
		FirmwareStateMachine: true,
		Client:               &domain.Client{ID: "client-1", IsActive: true},
	})
	s.PutLocation(&domain.Location{ID: "loc-b", FirmwareStateMachine: false})
	// firmware enabled but deactivated: must not show up in sweep reads
	s.PutLocation(&domain.Location{
		ID:                   "loc-c",
		IsActive:             false,
		FirmwareStateMachine: true,
		Client:               &domain.Client{ID: "client-1", IsActive: true},
	})
	s.PutLocation(&domain.Location{
		ID:                   "loc-d",
		IsActive:             true,
		FirmwareStateMachine: true,
		Client:               &domain.Client{ID: "client-2", IsActive: false},
	})

	for _, coreID := range []string{"door-1", "radar-1"} {
		loc, err := s.LocationByDeviceCoreID(ctx, coreID)
		if err != nil || loc == nil || loc.ID != "loc-a" {
			t.Fatalf("device lookup %q: got %v, %v", coreID, loc, err)
		}
	}
	if loc, _ := s.LocationByDeviceCoreID(ctx, "nope"); loc != nil {
		t.Fatalf("expected nil for unknown core, got %+v", loc)
	}
	if loc, _ := s.LocationBySirenCoreID(ctx, "siren-1"); loc == nil || loc.ID != "loc-a" {
		t.Fatalf("siren lookup failed: %+v", loc)
	}

	active, err := s.ActiveFirmwareLocations(ctx)
	if err != nil {
		t.Fatalf("ActiveFirmwareLocations: %v", err)
	}
	if len(active) != 1 || active[0].ID != "loc-a" {
		t.Fatalf("expected only the active firmware location, got %+v", active)
	}
}

func TestMemoryStore_TxCommitApplies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Now = fixedNow
	s.PutLocation(&domain.Location{ID: "loc-a", IsActive: true})

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.TouchLowBatteryAlert(ctx, "loc-a", fixedNow()); err != nil {
		t.Fatalf("TouchLowBatteryAlert: %v", err)
	}

	// not visible before commit
	loc, _ := s.LocationByID(ctx, "loc-a")
	if loc.SentLowBatteryAlertAt != nil {
		t.Fatal("write leaked before commit")
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	loc, _ = s.LocationByID(ctx, "loc-a")
	if loc.SentLowBatteryAlertAt == nil || !loc.SentLowBatteryAlertAt.Equal(fixedNow()) {
		t.Fatalf("expected committed timestamp, got %v", loc.SentLowBatteryAlertAt)
	}
}

func TestMemoryStore_TxRollbackDiscards(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Now = fixedNow
	s.PutSession(&domain.Session{ID: "sess-1", LocationID: "loc-a", CreatedAt: fixedNow().Add(-time.Hour), UpdatedAt: fixedNow().Add(-time.Hour)})

	tx, _ := s.Begin(ctx)
	sess, err := tx.LatestSession(ctx, "loc-a")
	if err != nil || sess == nil {
		t.Fatalf("LatestSession: %v, %v", sess, err)
	}
	if err := tx.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	after := s.Sessions("loc-a")
	if len(after) != 1 || !after[0].UpdatedAt.Equal(fixedNow().Add(-time.Hour)) {
		t.Fatalf("rollback leaked a write: %+v", after[0])
	}
}
