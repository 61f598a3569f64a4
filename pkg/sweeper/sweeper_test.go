package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/journal"
	"dialog-hq/meridian/pkg/session"
)

func testSetup(t *testing.T, config Config) (*Sweeper, *session.Registry, *journal.MemoryBackend) {
	t.Helper()
	registry := session.New(session.Config{}, session.Deps{})
	backend := journal.NewMemoryBackend(0)
	t.Cleanup(func() { backend.Close() })
	return New(registry, backend, nil, nil, config, nil), registry, backend
}

func TestSweeper_RunOnceSweepsAllSessions(t *testing.T) {
	sweeper, registry, _ := testSetup(t, Config{})

	for i := 0; i < 3; i++ {
		if _, err := registry.Create(); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	// A sweep over healthy sessions is a no-op but must not fail.
	sweeper.RunOnce(context.Background())

	if got := len(registry.Sessions()); got != 3 {
		t.Errorf("sessions after sweep = %d, want 3", got)
	}
}

func TestSweeper_RunOncePrunesJournal(t *testing.T) {
	sweeper, _, backend := testSetup(t, Config{JournalRetention: time.Hour})
	ctx := context.Background()

	old := journal.Record{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		Category:  "prompt",
		Count:     10,
		Timestamp: time.Now().Add(-2 * time.Hour),
	}
	recent := old
	recent.ID = uuid.New()
	recent.Timestamp = time.Now()

	for _, record := range []journal.Record{old, recent} {
		if err := backend.Append(ctx, record); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	sweeper.RunOnce(ctx)

	records, err := backend.Records(ctx, journal.Query{})
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("%d journal records remain, want 1", len(records))
	}
	if records[0].ID != recent.ID {
		t.Error("the recent record should survive pruning")
	}
}

func TestSweeper_StartWithoutSchedule(t *testing.T) {
	sweeper, _, _ := testSetup(t, Config{})

	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sweeper.IsRunning() {
		t.Error("sweeper without a schedule should not be running")
	}
}

func TestSweeper_StartInvalidSchedule(t *testing.T) {
	sweeper, _, _ := testSetup(t, Config{Schedule: "not a schedule"})

	if err := sweeper.Start(context.Background()); err == nil {
		t.Error("Start() with invalid schedule should fail")
	}
}

func TestSweeper_StartAndStop(t *testing.T) {
	sweeper, _, _ := testSetup(t, Config{Schedule: "@every 1h"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !sweeper.IsRunning() {
		t.Error("sweeper should be running after Start")
	}
	if sweeper.NextRun() == nil {
		t.Error("NextRun() = nil, want a scheduled time")
	}

	sweeper.Stop()
	if sweeper.IsRunning() {
		t.Error("sweeper should not be running after Stop")
	}
}
