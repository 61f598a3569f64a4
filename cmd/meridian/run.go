package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dialog-hq/meridian/pkg/archive"
	"dialog-hq/meridian/pkg/budget"
	"dialog-hq/meridian/pkg/config"
	"dialog-hq/meridian/pkg/journal"
	"dialog-hq/meridian/pkg/session"
	"dialog-hq/meridian/pkg/sweeper"
	"dialog-hq/meridian/pkg/telemetry/logging"
	"dialog-hq/meridian/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel      string
	metricsListen string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Meridian session runtime",
	Long: `Start the Meridian session runtime with the specified configuration.

The runtime serves Prometheus metrics and a health endpoint, runs
scheduled maintenance sweeps over live sessions, and journals token
allocations.

Examples:
  # Start with default config
  meridian run

  # Start with custom config
  meridian run --config /etc/meridian/config.yaml

  # Override metrics listen address
  meridian run --metrics-listen 0.0.0.0:9090

  # Validate config without starting
  meridian run --dry-run`,
	RunE: runRuntime,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.metricsListen, "metrics-listen", "", "override metrics listen address")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runRuntime(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.metricsListen != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.metricsListen
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New()
	}

	// Allocation journal
	var journalBackend journal.Backend
	if cfg.Journal.Enabled {
		switch cfg.Journal.Backend {
		case "sqlite":
			journalBackend, err = journal.NewSQLiteBackend(cfg.Journal.SQLitePath)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
		default:
			journalBackend = journal.NewMemoryBackend(cfg.Journal.MemoryMaxRecords)
		}
		defer journalBackend.Close()
	}

	// Session archive
	var archiveStore *archive.Store
	if cfg.Archive.Enabled {
		archiveStore, err = archive.NewStore(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archiveStore.Close()
	}

	quotas := make(map[budget.Category]int, len(cfg.Session.TokenQuotas))
	for name, quota := range cfg.Session.TokenQuotas {
		quotas[budget.Category(name)] = quota
	}

	registry := session.New(session.Config{
		MaxContextSize:             cfg.Session.MaxContextSize,
		DefaultImportanceThreshold: cfg.Session.ImportanceThreshold,
		MaxTokens:                  cfg.Session.MaxTokens,
		TokenQuotas:                quotas,
		MetricsRetention:           cfg.Session.MetricsRetention,
	}, session.Deps{
		Metrics: m,
		Journal: journalBackend,
		Archive: archiveStore,
		Logger:  logger,
	})

	// Background sweeper
	if cfg.Sweep.Enabled {
		sw := sweeper.New(registry, journalBackend, archiveStore, m, sweeper.Config{
			Schedule:         cfg.Sweep.Schedule,
			JournalRetention: time.Duration(cfg.Journal.RetentionDays) * 24 * time.Hour,
			ArchiveRetention: time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour,
		}, logger)
		if err := sw.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
		defer sw.Stop()
	}

	// Metrics and health endpoints
	var server *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		server = &http.Server{
			Addr:         cfg.Telemetry.Metrics.ListenAddress,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	logger.Info("meridian started", "version", Version)

	<-ctx.Done()
	logger.Info("shutting down")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}
	return nil
}
