package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one accepted token allocation.
type Record struct {
	// ID uniquely identifies the record.
	ID uuid.UUID

	// SessionID is the session the allocation belongs to.
	SessionID uuid.UUID

	// Category is the budget category charged.
	Category string

	// Count is the number of tokens allocated.
	Count int

	// Timestamp is when the allocation was accepted.
	Timestamp time.Time

	// Metadata carries caller-defined annotations.
	Metadata map[string]any
}

// Query filters a journal read. Zero-valued fields are open.
type Query struct {
	// SessionID restricts to one session when non-nil.
	SessionID uuid.UUID

	// Category restricts to one budget category when non-empty.
	Category string

	// Since excludes records before it when non-zero.
	Since time.Time

	// Until excludes records after it when non-zero.
	Until time.Time

	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// Backend persists allocation records.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Append stores a record. Returns error on failure.
	Append(ctx context.Context, record Record) error

	// Records returns records matching the query, oldest first.
	Records(ctx context.Context, query Query) ([]Record, error)

	// Prune removes records older than the cutoff, returning the number
	// deleted.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
