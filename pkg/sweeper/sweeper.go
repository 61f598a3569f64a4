// Package sweeper runs periodic maintenance over live sessions.
//
// Each sweep visits every live session to evict expired context items,
// compact context stores near capacity, and prune old flow metric
// snapshots. When journal or archive retention is configured, records
// older than the retention window are pruned in the same cycle.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dialog-hq/meridian/pkg/archive"
	"dialog-hq/meridian/pkg/journal"
	"dialog-hq/meridian/pkg/session"
	"dialog-hq/meridian/pkg/telemetry/metrics"
)

// Config controls the sweeper's schedule and retention windows.
type Config struct {
	// Schedule is a cron expression (supports descriptors like
	// "@every 5m") controlling when sweeps run.
	Schedule string

	// JournalRetention is how long journal records are kept.
	// Zero disables journal pruning.
	JournalRetention time.Duration

	// ArchiveRetention is how long session archives are kept.
	// Zero disables archive pruning.
	ArchiveRetention time.Duration
}

// Sweeper periodically sweeps all live sessions on a cron schedule.
type Sweeper struct {
	registry *session.Registry
	journal  journal.Backend
	archive  *archive.Store
	metrics  *metrics.Metrics
	config   Config
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a sweeper over the registry. The journal, archive, and
// metrics collaborators may be nil.
func New(registry *session.Registry, journalBackend journal.Backend, archiveStore *archive.Store, m *metrics.Metrics, config Config, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		registry: registry,
		journal:  journalBackend,
		archive:  archiveStore,
		metrics:  m,
		config:   config,
		cron:     cron.New(),
		logger:   logger.With("component", "sweeper"),
	}
}

// Start begins scheduled sweeping. If the schedule is empty the
// sweeper does nothing. The sweeper stops when the context is
// cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("sweeper started", "schedule", s.config.Schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce executes one sweep cycle over every live session, then
// prunes journal and archive records past their retention windows.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	sessions := s.registry.Sessions()

	var evicted int
	for _, id := range sessions {
		removed, err := s.registry.Sweep(id)
		if err != nil {
			// The session may have been torn down mid-sweep.
			s.logger.Debug("session sweep skipped", "session_id", id, "error", err)
			continue
		}
		evicted += removed
	}

	s.pruneJournal(ctx)
	s.pruneArchive(ctx)

	elapsed := time.Since(start)
	s.metrics.RecordSweepDuration(elapsed.Seconds())

	if evicted > 0 {
		s.logger.Info("sweep completed",
			"sessions", len(sessions),
			"evicted_items", evicted,
			"duration", elapsed,
		)
	} else {
		s.logger.Debug("sweep completed",
			"sessions", len(sessions),
			"duration", elapsed,
		)
	}
}

func (s *Sweeper) pruneJournal(ctx context.Context) {
	if s.journal == nil || s.config.JournalRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.JournalRetention)
	removed, err := s.journal.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("journal pruning failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("journal pruned", "removed", removed)
	}
}

func (s *Sweeper) pruneArchive(ctx context.Context) {
	if s.archive == nil || s.config.ArchiveRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.ArchiveRetention)
	removed, err := s.archive.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("archive pruning failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("archive pruned", "removed", removed)
	}
}

// Stop stops the scheduler and waits for any running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when no sweep
// is scheduled.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
