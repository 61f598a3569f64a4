package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "session.max_tokens").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateFlow(&cfg.Flow)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateArchive(&cfg.Archive)...)
	errs = append(errs, validateSweep(&cfg.Sweep)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateSession(cfg *SessionConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxContextSize < 0 {
		errs = append(errs, FieldError{
			Field:   "session.max_context_size",
			Message: "must not be negative",
		})
	}
	if cfg.ImportanceThreshold < 0 || cfg.ImportanceThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "session.importance_threshold",
			Message: "must be between 0.0 and 1.0",
		})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{
			Field:   "session.max_tokens",
			Message: "must be positive",
		})
	}
	if cfg.MetricsRetention < 0 {
		errs = append(errs, FieldError{
			Field:   "session.metrics_retention",
			Message: "must not be negative",
		})
	}

	validCategories := map[string]bool{
		"prompt": true, "completion": true, "context": true, "total": true,
	}
	for name, quota := range cfg.TokenQuotas {
		if !validCategories[name] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("session.token_quotas.%s", name),
				Message: "unknown category, must be one of: prompt, completion, context, total",
			})
		}
		if quota < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("session.token_quotas.%s", name),
				Message: "must not be negative",
			})
		}
		if quota > cfg.MaxTokens {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("session.token_quotas.%s", name),
				Message: fmt.Sprintf("must not exceed session.max_tokens (%d)", cfg.MaxTokens),
			})
		}
	}
	return errs
}

func validateFlow(cfg *FlowConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTurns < 0 {
		errs = append(errs, FieldError{
			Field:   "flow.max_turns",
			Message: "must not be negative",
		})
	}
	if cfg.ResponseTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "flow.response_timeout",
			Message: "must not be negative",
		})
	}
	if cfg.TopicLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "flow.topic_limit",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("invalid backend %q, must be one of: memory, sqlite", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite_path",
			Message: "required when backend is sqlite",
		})
	}
	if cfg.MemoryMaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.memory_max_records",
			Message: "must not be negative",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention_days",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateArchive(cfg *ArchiveConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "archive.path",
			Message: "required when archive is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "archive.retention_days",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateSweep(cfg *SweepConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "sweep.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q, must be one of: json, text", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "required when metrics are enabled",
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "must start with /",
			})
		}
	}
	return errs
}
