package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dialog-hq/meridian/pkg/cli"
	"dialog-hq/meridian/pkg/config"
	"dialog-hq/meridian/pkg/journal"
)

var journalFlags struct {
	dbPath   string
	session  string
	category string
	since    string
	until    string
	limit    int
	format   string
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the token allocation journal",
	Long: `Query token allocation records from a SQLite journal database.

Examples:
  # All records for a session
  meridian journal --db data/journal.db --session 6dd7b2f4-...

  # Prompt allocations in a time window, as CSV
  meridian journal --db data/journal.db --category prompt \
    --since 2026-08-01T00:00:00Z --format csv

  # The most recent 50 records as JSON
  meridian journal --db data/journal.db --limit 50 --format json`,
	RunE: queryJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVar(&journalFlags.dbPath, "db", "", "journal database path (uses config if not specified)")
	journalCmd.Flags().StringVar(&journalFlags.session, "session", "", "filter by session id")
	journalCmd.Flags().StringVar(&journalFlags.category, "category", "", "filter by category (prompt, completion, context, total)")
	journalCmd.Flags().StringVar(&journalFlags.since, "since", "", "records at or after this RFC3339 time")
	journalCmd.Flags().StringVar(&journalFlags.until, "until", "", "records at or before this RFC3339 time")
	journalCmd.Flags().IntVar(&journalFlags.limit, "limit", 0, "maximum records to return (0 = all)")
	journalCmd.Flags().StringVar(&journalFlags.format, "format", "text", "output format: text, json, csv")
}

func queryJournal(cmd *cobra.Command, args []string) error {
	dbPath := journalFlags.dbPath
	if dbPath == "" {
		if err := config.Initialize(cfgFile); err != nil {
			return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
		}
		dbPath = config.GetConfig().Journal.SQLitePath
	}

	query := journal.Query{Limit: journalFlags.limit, Category: journalFlags.category}

	if journalFlags.session != "" {
		sessionID, err := uuid.Parse(journalFlags.session)
		if err != nil {
			return cli.NewCommandError("journal", fmt.Errorf("invalid session id: %w", err))
		}
		query.SessionID = sessionID
	}
	if journalFlags.since != "" {
		since, err := time.Parse(time.RFC3339, journalFlags.since)
		if err != nil {
			return cli.NewCommandError("journal", fmt.Errorf("invalid --since: %w", err))
		}
		query.Since = since
	}
	if journalFlags.until != "" {
		until, err := time.Parse(time.RFC3339, journalFlags.until)
		if err != nil {
			return cli.NewCommandError("journal", fmt.Errorf("invalid --until: %w", err))
		}
		query.Until = until
	}

	backend, err := journal.NewSQLiteBackend(dbPath)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	defer backend.Close()

	records, err := backend.Records(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}

	switch cli.OutputFormat(journalFlags.format) {
	case cli.FormatJSON:
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, records)
	case cli.FormatCSV:
		formatter := &cli.CSVFormatter{
			Headers: []string{"timestamp", "session_id", "category", "count"},
		}
		return formatter.FormatTo(os.Stdout, recordRows(records))
	default:
		if len(records) == 0 {
			fmt.Println("no records found")
			return nil
		}
		return cli.NewFormatter(cli.FormatText).FormatTo(os.Stdout, recordRows(records))
	}
}

func recordRows(records []journal.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.Timestamp.Format(time.RFC3339),
			record.SessionID.String(),
			record.Category,
			strconv.Itoa(record.Count),
		})
	}
	return rows
}
