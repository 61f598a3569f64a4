package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return DefaultConfig()
}

func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	return vErr.Errors
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Validate(DefaultConfig()) error = %v", err)
	}
}

func TestValidate_Session(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "negative context size",
			mutate: func(c *Config) { c.Session.MaxContextSize = -1 },
			field:  "session.max_context_size",
		},
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Session.ImportanceThreshold = 1.1 },
			field:  "session.importance_threshold",
		},
		{
			name:   "zero max tokens",
			mutate: func(c *Config) { c.Session.MaxTokens = 0 },
			field:  "session.max_tokens",
		},
		{
			name:   "unknown quota category",
			mutate: func(c *Config) { c.Session.TokenQuotas = map[string]int{"embedding": 100} },
			field:  "session.token_quotas.embedding",
		},
		{
			name:   "quota above max tokens",
			mutate: func(c *Config) { c.Session.TokenQuotas = map[string]int{"prompt": 999999} },
			field:  "session.token_quotas.prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := fieldErrors(t, Validate(cfg))
			found := false
			for _, fe := range errs {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want error on field %q", errs, tt.field)
			}
		})
	}
}

func TestValidate_JournalBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Journal.Backend = "redis"
	errs := fieldErrors(t, Validate(cfg))
	if errs[0].Field != "journal.backend" {
		t.Errorf("error field = %q, want journal.backend", errs[0].Field)
	}

	cfg = validConfig()
	cfg.Journal.Backend = "sqlite"
	cfg.Journal.SQLitePath = ""
	errs = fieldErrors(t, Validate(cfg))
	if errs[0].Field != "journal.sqlite_path" {
		t.Errorf("error field = %q, want journal.sqlite_path", errs[0].Field)
	}
}

func TestValidate_SweepSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Sweep.Schedule = "not a cron expression"
	errs := fieldErrors(t, Validate(cfg))
	if errs[0].Field != "sweep.schedule" {
		t.Errorf("error field = %q, want sweep.schedule", errs[0].Field)
	}

	// Disabled sweeps skip schedule validation.
	cfg.Sweep.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() with disabled sweep error = %v", err)
	}
}

func TestValidate_Telemetry(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Logging.Level = "verbose"
	cfg.Telemetry.Logging.Format = "xml"
	cfg.Telemetry.Metrics.Path = "metrics"

	errs := fieldErrors(t, Validate(cfg))
	if len(errs) != 3 {
		t.Fatalf("Validate() returned %d errors, want 3: %v", len(errs), errs)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "session.max_tokens", Message: "must be positive"},
		{Field: "journal.backend", Message: "invalid backend"},
	}}
	msg := err.Error()
	if !strings.Contains(msg, "2 errors") {
		t.Errorf("Error() = %q, want mention of 2 errors", msg)
	}
	if !strings.Contains(msg, "session.max_tokens") {
		t.Errorf("Error() = %q, want field names included", msg)
	}
}
