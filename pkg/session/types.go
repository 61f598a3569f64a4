package session

import (
	"errors"
	"log/slog"

	"dialog-hq/meridian/pkg/archive"
	"dialog-hq/meridian/pkg/budget"
	"dialog-hq/meridian/pkg/clock"
	"dialog-hq/meridian/pkg/journal"
	"dialog-hq/meridian/pkg/telemetry/metrics"
	"dialog-hq/meridian/pkg/tokens"
)

// Session registry errors.
var (
	// ErrSessionNotFound indicates the session id is not registered.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotActive indicates an operation that requires an
	// active session was attempted in another lifecycle state.
	ErrSessionNotActive = errors.New("session not active")
)

// Config controls the structures created for each session.
type Config struct {
	// MaxContextSize caps the number of context items retained per
	// session. Zero means the default of 1000.
	MaxContextSize int

	// DefaultImportanceThreshold is the minimum importance score a
	// message needs to enter the context store. Zero means the
	// default of 0.5.
	DefaultImportanceThreshold float64

	// MaxTokens is the total token budget per session. Zero means
	// the default of 8192.
	MaxTokens int

	// TokenQuotas overrides per-category token quotas. Categories
	// not present keep their derived defaults.
	TokenQuotas map[budget.Category]int

	// MetricsRetention caps how many flow metric snapshots each
	// session keeps after a sweep. Zero means the default of 100.
	MetricsRetention int
}

const (
	defaultImportanceThreshold = 0.5
	defaultMaxTokens           = 8192
	defaultMetricsRetention    = 100
)

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.DefaultImportanceThreshold == 0 {
		c.DefaultImportanceThreshold = defaultImportanceThreshold
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.MetricsRetention == 0 {
		c.MetricsRetention = defaultMetricsRetention
	}
}

// Deps carries the registry's optional collaborators. Every field may
// be left nil or zero; the registry degrades to in-memory operation
// with no telemetry.
type Deps struct {
	// Clock supplies time. Nil means the system clock.
	Clock clock.Clock

	// Metrics receives Prometheus counter and gauge updates.
	Metrics *metrics.Metrics

	// Journal receives one record per accepted token allocation.
	Journal journal.Backend

	// Archive receives the final record of each torn-down session.
	Archive *archive.Store

	// Logger is the structured logger. Nil means slog.Default.
	Logger *slog.Logger

	// Estimator fills in token counts for appended messages that
	// carry none. Nil means the character-based default.
	Estimator tokens.Estimator
}
