package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for durability.
// It uses a write-ahead log for better concurrent performance and is
// suitable for single-instance deployments wanting allocation history
// across restarts.
type SQLiteBackend struct {
	db *sql.DB

	appendStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// NewSQLiteBackend opens (creating if needed) the journal database at
// dbPath and prepares its statements.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS token_usage (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		category   TEXT NOT NULL,
		count      INTEGER NOT NULL,
		timestamp  INTEGER NOT NULL,
		metadata   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_token_usage_session ON token_usage(session_id);
	CREATE INDEX IF NOT EXISTS idx_token_usage_timestamp ON token_usage(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	backend := &SQLiteBackend{db: db}

	backend.appendStmt, err = db.Prepare(
		`INSERT INTO token_usage (id, session_id, category, count, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare append statement: %w", err)
	}

	backend.pruneStmt, err = db.Prepare(
		`DELETE FROM token_usage WHERE timestamp < ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return backend, nil
}

// Append stores a record.
func (s *SQLiteBackend) Append(ctx context.Context, record Record) error {
	var metadata []byte
	if record.Metadata != nil {
		var err error
		metadata, err = json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode record metadata: %w", err)
		}
	}

	_, err := s.appendStmt.ExecContext(ctx,
		record.ID.String(),
		record.SessionID.String(),
		record.Category,
		record.Count,
		record.Timestamp.UnixNano(),
		string(metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to append journal record: %w", err)
	}
	return nil
}

// Records returns matching records, oldest first.
func (s *SQLiteBackend) Records(ctx context.Context, query Query) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	if query.SessionID != uuid.Nil {
		clauses = append(clauses, "session_id = ?")
		args = append(args, query.SessionID.String())
	}
	if query.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, query.Category)
	}
	if !query.Since.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if !query.Until.IsZero() {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, query.Until.UnixNano())
	}

	stmt := "SELECT id, session_id, category, count, timestamp, metadata FROM token_usage"
	if len(clauses) > 0 {
		stmt += " WHERE " + strings.Join(clauses, " AND ")
	}
	stmt += " ORDER BY timestamp ASC"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record       Record
			idText       string
			sessionText  string
			nanos        int64
			metadataText sql.NullString
		)
		if err := rows.Scan(&idText, &sessionText, &record.Category, &record.Count, &nanos, &metadataText); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}

		record.ID, err = uuid.Parse(idText)
		if err != nil {
			return nil, fmt.Errorf("corrupt record id %q: %w", idText, err)
		}
		record.SessionID, err = uuid.Parse(sessionText)
		if err != nil {
			return nil, fmt.Errorf("corrupt session id %q: %w", sessionText, err)
		}
		record.Timestamp = time.Unix(0, nanos)

		if metadataText.Valid && metadataText.String != "" {
			if err := json.Unmarshal([]byte(metadataText.String), &record.Metadata); err != nil {
				return nil, fmt.Errorf("corrupt record metadata: %w", err)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Prune removes records older than the cutoff.
func (s *SQLiteBackend) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Close releases the prepared statements and the database handle.
func (s *SQLiteBackend) Close() error {
	if s.appendStmt != nil {
		s.appendStmt.Close()
	}
	if s.pruneStmt != nil {
		s.pruneStmt.Close()
	}
	return s.db.Close()
}
