// Package archive persists the final record of a torn-down session.
//
// When a session ends, its state transition history and flow metric
// snapshots are written out as a single archive row so that the live
// registry can release all per-session memory while operators keep a
// queryable trail for diagnostics.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"dialog-hq/meridian/pkg/session/flow"
	"dialog-hq/meridian/pkg/session/state"
)

// ErrSessionNotArchived indicates no archive row exists for the session.
var ErrSessionNotArchived = errors.New("session not archived")

// Entry is one archived session.
type Entry struct {
	SessionID   uuid.UUID
	FinalState  state.State
	ArchivedAt  time.Time
	Transitions []state.Transition
	Metrics     []flow.MetricsSnapshot
}

// Store writes and reads session archives backed by SQLite.
type Store struct {
	db *sql.DB

	saveStmt *sql.Stmt
	loadStmt *sql.Stmt
}

// NewStore opens (creating if needed) the archive database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS session_archive (
		session_id  TEXT PRIMARY KEY,
		final_state TEXT NOT NULL,
		archived_at INTEGER NOT NULL,
		transitions TEXT NOT NULL,
		metrics     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_archive_at ON session_archive(archived_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	store := &Store{db: db}

	store.saveStmt, err = db.Prepare(
		`INSERT OR REPLACE INTO session_archive
		 (session_id, final_state, archived_at, transitions, metrics)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare save statement: %w", err)
	}

	store.loadStmt, err = db.Prepare(
		`SELECT final_state, archived_at, transitions, metrics
		 FROM session_archive WHERE session_id = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare load statement: %w", err)
	}

	return store, nil
}

// Save archives the session's lifecycle history and metric snapshots.
// Saving the same session twice replaces the earlier archive.
func (s *Store) Save(ctx context.Context, entry Entry) error {
	transitions, err := json.Marshal(entry.Transitions)
	if err != nil {
		return fmt.Errorf("failed to encode transitions: %w", err)
	}
	metrics, err := json.Marshal(entry.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	_, err = s.saveStmt.ExecContext(ctx,
		entry.SessionID.String(),
		string(entry.FinalState),
		entry.ArchivedAt.UnixNano(),
		string(transitions),
		string(metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to save session archive: %w", err)
	}
	return nil
}

// Load returns the archive for a session, or ErrSessionNotArchived.
func (s *Store) Load(ctx context.Context, sessionID uuid.UUID) (Entry, error) {
	entry := Entry{SessionID: sessionID}

	var (
		finalState  string
		archivedAt  int64
		transitions string
		metrics     string
	)
	err := s.loadStmt.QueryRowContext(ctx, sessionID.String()).
		Scan(&finalState, &archivedAt, &transitions, &metrics)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrSessionNotArchived, sessionID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load session archive: %w", err)
	}

	entry.FinalState = state.State(finalState)
	entry.ArchivedAt = time.Unix(0, archivedAt)
	if err := json.Unmarshal([]byte(transitions), &entry.Transitions); err != nil {
		return Entry{}, fmt.Errorf("corrupt archived transitions: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &entry.Metrics); err != nil {
		return Entry{}, fmt.Errorf("corrupt archived metrics: %w", err)
	}
	return entry, nil
}

// Sessions lists archived session ids, most recently archived first.
func (s *Store) Sessions(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM session_archive ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan archived session id: %w", err)
		}
		id, err := uuid.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("corrupt archived session id %q: %w", text, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Prune removes archives older than the cutoff and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_archive WHERE archived_at < ?`, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	if s.saveStmt != nil {
		s.saveStmt.Close()
	}
	if s.loadStmt != nil {
		s.loadStmt.Close()
	}
	return s.db.Close()
}
