package config

// Default values for configuration fields.
const (
	// Session defaults
	DefaultMaxContextSize      = 1000
	DefaultImportanceThreshold = 0.5
	DefaultMaxTokens           = 8192
	DefaultMetricsRetention    = 100

	// Flow defaults
	DefaultMaintainContext = true

	// Journal defaults
	DefaultJournalEnabled       = true
	DefaultJournalBackend       = "memory"
	DefaultJournalSQLitePath    = "data/journal.db"
	DefaultJournalMaxRecords    = 10000
	DefaultJournalRetentionDays = 30

	// Archive defaults
	DefaultArchiveEnabled       = false
	DefaultArchivePath          = "data/archive.db"
	DefaultArchiveRetentionDays = 90

	// Sweep defaults
	DefaultSweepEnabled  = true
	DefaultSweepSchedule = "@every 5m"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
)

// ApplyDefaults fills in default values for any configuration fields
// that are not explicitly set. Boolean fields with true defaults are
// handled by DefaultConfig instead, since a zero bool is
// indistinguishable from an explicit false.
func ApplyDefaults(cfg *Config) {
	// Session defaults
	if cfg.Session.MaxContextSize == 0 {
		cfg.Session.MaxContextSize = DefaultMaxContextSize
	}
	if cfg.Session.ImportanceThreshold == 0 {
		cfg.Session.ImportanceThreshold = DefaultImportanceThreshold
	}
	if cfg.Session.MaxTokens == 0 {
		cfg.Session.MaxTokens = DefaultMaxTokens
	}
	if cfg.Session.MetricsRetention == 0 {
		cfg.Session.MetricsRetention = DefaultMetricsRetention
	}

	// Journal defaults
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLitePath == "" {
		cfg.Journal.SQLitePath = DefaultJournalSQLitePath
	}
	if cfg.Journal.MemoryMaxRecords == 0 {
		cfg.Journal.MemoryMaxRecords = DefaultJournalMaxRecords
	}

	// Archive defaults
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = DefaultArchivePath
	}

	// Sweep defaults
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = DefaultSweepSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with every default applied,
// including the boolean fields that default to true.
func DefaultConfig() *Config {
	cfg := &Config{
		Flow: FlowConfig{
			MaintainContext: DefaultMaintainContext,
		},
		Journal: JournalConfig{
			Enabled:       DefaultJournalEnabled,
			RetentionDays: DefaultJournalRetentionDays,
		},
		Archive: ArchiveConfig{
			Enabled:       DefaultArchiveEnabled,
			RetentionDays: DefaultArchiveRetentionDays,
		},
		Sweep: SweepConfig{
			Enabled: DefaultSweepEnabled,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
