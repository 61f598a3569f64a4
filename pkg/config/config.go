package config

import "time"

// Config is the root configuration structure for Meridian. It contains
// all configuration sections for session management, flow controls,
// the allocation journal, session archiving, background sweeps, and
// telemetry.
type Config struct {
	// Session contains per-session sizing: context capacity,
	// importance threshold, and token budgets.
	Session SessionConfig `yaml:"session"`

	// Flow contains the default flow controls applied to new sessions.
	Flow FlowConfig `yaml:"flow"`

	// Journal contains configuration for the token allocation journal
	// including backend selection.
	Journal JournalConfig `yaml:"journal"`

	// Archive contains configuration for archiving torn-down sessions.
	Archive ArchiveConfig `yaml:"archive"`

	// Sweep contains configuration for the background maintenance
	// sweeper.
	Sweep SweepConfig `yaml:"sweep"`

	// Telemetry contains observability configuration including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SessionConfig holds per-session sizing and budgets.
type SessionConfig struct {
	// MaxContextSize caps the number of context items kept per session.
	MaxContextSize int `yaml:"max_context_size"`

	// ImportanceThreshold is the minimum importance score a message
	// needs to enter the context store.
	ImportanceThreshold float64 `yaml:"importance_threshold"`

	// MaxTokens is the total token budget per session.
	MaxTokens int `yaml:"max_tokens"`

	// TokenQuotas overrides per-category token quotas. Keys are the
	// category names: prompt, completion, context, total.
	TokenQuotas map[string]int `yaml:"token_quotas"`

	// MetricsRetention caps how many flow metric snapshots each
	// session keeps after a sweep.
	MetricsRetention int `yaml:"metrics_retention"`
}

// FlowConfig holds the default flow controls for new sessions.
type FlowConfig struct {
	// MaxTurns caps the number of messages per session. Zero means
	// unlimited.
	MaxTurns int `yaml:"max_turns"`

	// ResponseTimeout is the maximum allowed gap between consecutive
	// messages. Zero means unlimited.
	ResponseTimeout time.Duration `yaml:"response_timeout"`

	// TopicLimit caps the number of detected topic changes. Zero
	// means unlimited.
	TopicLimit int `yaml:"topic_limit"`

	// MaintainContext feeds appended messages into the context store.
	MaintainContext bool `yaml:"maintain_context"`
}

// JournalConfig holds allocation journal configuration.
type JournalConfig struct {
	// Enabled turns allocation journaling on.
	Enabled bool `yaml:"enabled"`

	// Backend selects the journal storage backend: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the journal database path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// MemoryMaxRecords caps the in-memory backend's record count.
	MemoryMaxRecords int `yaml:"memory_max_records"`

	// RetentionDays is how long journal records are kept before the
	// sweeper prunes them. Zero disables pruning.
	RetentionDays int `yaml:"retention_days"`
}

// ArchiveConfig holds session archive configuration.
type ArchiveConfig struct {
	// Enabled turns session archiving on.
	Enabled bool `yaml:"enabled"`

	// Path is the archive database path.
	Path string `yaml:"path"`

	// RetentionDays is how long archives are kept before the sweeper
	// prunes them. Zero disables pruning.
	RetentionDays int `yaml:"retention_days"`
}

// SweepConfig holds background sweeper configuration.
type SweepConfig struct {
	// Enabled turns the background sweeper on.
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression controlling when sweeps run.
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is the log output format: json or text.
	Format string `yaml:"format"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics server binds to.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path the metrics are served on.
	Path string `yaml:"path"`
}
