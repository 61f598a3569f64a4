package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields absent from the file keep their default values. The result is
// validated before being returned. The configuration is not modified by
// environment variables; use LoadConfigWithEnvOverrides for that
// functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Unmarshal over the defaults so absent fields keep them.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MERIDIAN_SECTION_FIELD (e.g., MERIDIAN_SESSION_MAX_TOKENS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MERIDIAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Session overrides
	if val := os.Getenv("MERIDIAN_SESSION_MAX_CONTEXT_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Session.MaxContextSize = i
		}
	}
	if val := os.Getenv("MERIDIAN_SESSION_IMPORTANCE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Session.ImportanceThreshold = f
		}
	}
	if val := os.Getenv("MERIDIAN_SESSION_MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Session.MaxTokens = i
		}
	}
	if val := os.Getenv("MERIDIAN_SESSION_METRICS_RETENTION"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Session.MetricsRetention = i
		}
	}

	// Flow overrides
	if val := os.Getenv("MERIDIAN_FLOW_MAX_TURNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Flow.MaxTurns = i
		}
	}
	if val := os.Getenv("MERIDIAN_FLOW_RESPONSE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Flow.ResponseTimeout = d
		}
	}
	if val := os.Getenv("MERIDIAN_FLOW_TOPIC_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Flow.TopicLimit = i
		}
	}
	if val := os.Getenv("MERIDIAN_FLOW_MAINTAIN_CONTEXT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Flow.MaintainContext = b
		}
	}

	// Journal overrides
	if val := os.Getenv("MERIDIAN_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv("MERIDIAN_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLitePath = val
	}
	if val := os.Getenv("MERIDIAN_JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.RetentionDays = i
		}
	}

	// Archive overrides
	if val := os.Getenv("MERIDIAN_ARCHIVE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_ARCHIVE_PATH"); val != "" {
		cfg.Archive.Path = val
	}
	if val := os.Getenv("MERIDIAN_ARCHIVE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Archive.RetentionDays = i
		}
	}

	// Sweep overrides
	if val := os.Getenv("MERIDIAN_SWEEP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Sweep.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_SWEEP_SCHEDULE"); val != "" {
		cfg.Sweep.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
