package store

import (
	"testing"
	"time"

	"github.com/lazypower/lethe/internal/decay"
	"github.com/lazypower/lethe/internal/introspect"
	"github.com/lazypower/lethe/internal/safety"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestMigrations(t *testing.T) {
	j := testJournal(t)

	v, err := j.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("schema version = %d, want 3", v)
	}
}

func TestOpenOnDisk(t *testing.T) {
	path := t.TempDir() + "/sub/lethe.db"
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if j.Path != path {
		t.Errorf("path = %s, want %s", j.Path, path)
	}
	if err := j.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestDecayEventsRoundTrip(t *testing.T) {
	j := testJournal(t)

	events := []decay.Event{
		{Timestamp: time.Now(), Capability: "joke_telling", Type: decay.DecayApproximate, OldLevel: 0, NewLevel: 1},
		{Timestamp: time.Now(), Capability: "joke_telling", Type: decay.DecayStub, OldLevel: 1, NewLevel: 2},
		{Timestamp: time.Now(), Capability: "fortune_cookie", Type: decay.DecayDelete, OldLevel: 2, NewLevel: 3},
	}
	for _, ev := range events {
		if err := j.RecordDecay(ev); err != nil {
			t.Fatalf("RecordDecay: %v", err)
		}
	}

	got, err := j.DecayEvents(0)
	if err != nil {
		t.Fatalf("DecayEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	// Newest first.
	if got[0].Capability != "fortune_cookie" || got[0].Type != decay.DecayDelete {
		t.Errorf("newest event = %+v", got[0])
	}

	limited, err := j.DecayEvents(1)
	if err != nil {
		t.Fatalf("DecayEvents(1): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited events = %d, want 1", len(limited))
	}
}

func TestDecayTypeConstraint(t *testing.T) {
	j := testJournal(t)

	err := j.RecordDecay(decay.Event{Timestamp: time.Now(), Capability: "x", Type: "melt"})
	if err == nil {
		t.Error("expected CHECK violation for unknown decay type")
	}
}

func TestChecksRoundTrip(t *testing.T) {
	j := testJournal(t)

	c := safety.Check{
		Timestamp:          time.Now(),
		Status:             safety.StatusWarning,
		Message:            "Significant capability loss. Consider intervention.",
		ActiveCount:        5,
		EssentialCount:     2,
		InterventionNeeded: false,
	}
	if err := j.RecordCheck(c); err != nil {
		t.Fatalf("RecordCheck: %v", err)
	}

	got, err := j.Checks(0)
	if err != nil {
		t.Fatalf("Checks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("checks = %d, want 1", len(got))
	}
	if got[0].Status != safety.StatusWarning || got[0].ActiveCount != 5 || got[0].InterventionNeeded {
		t.Errorf("check = %+v", got[0])
	}
}

func TestSnapshotsRoundTrip(t *testing.T) {
	j := testJournal(t)

	s := introspect.State{
		Timestamp: time.Now(),
		Total:     26,
		Active:    20,
		Degraded:  6,
		Deleted:   2,
		Health:    81.5,
	}
	if err := j.RecordSnapshot(s); err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}

	got, err := j.Snapshots(0)
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(got))
	}
	if got[0].Total != 26 || got[0].Health != 81.5 {
		t.Errorf("snapshot = %+v", got[0])
	}
}
