package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend implements Backend with a bounded in-memory ring.
// Oldest records are dropped when the cap is reached. This is the
// default backend; all data is lost when the process exits.
type MemoryBackend struct {
	records    []Record
	maxRecords int

	mu sync.RWMutex
}

// NewMemoryBackend creates a memory backend holding at most maxRecords
// entries. A non-positive cap defaults to 10,000.
func NewMemoryBackend(maxRecords int) *MemoryBackend {
	if maxRecords <= 0 {
		maxRecords = 10000
	}
	return &MemoryBackend{maxRecords: maxRecords}
}

// Append stores a record, dropping the oldest when at capacity.
func (m *MemoryBackend) Append(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) >= m.maxRecords {
		drop := len(m.records) - m.maxRecords + 1
		m.records = append(m.records[:0], m.records[drop:]...)
	}
	m.records = append(m.records, record)
	return nil
}

// Records returns matching records, oldest first.
func (m *MemoryBackend) Records(_ context.Context, query Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		if !matches(record, query) {
			continue
		}
		out = append(out, record)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

// Prune removes records older than the cutoff.
func (m *MemoryBackend) Prune(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	removed := 0
	for _, record := range m.records {
		if record.Timestamp.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept
	return removed, nil
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// matches reports whether the record passes the query filters.
func matches(record Record, query Query) bool {
	if query.SessionID != uuid.Nil && record.SessionID != query.SessionID {
		return false
	}
	if query.Category != "" && record.Category != query.Category {
		return false
	}
	if !query.Since.IsZero() && record.Timestamp.Before(query.Since) {
		return false
	}
	if !query.Until.IsZero() && record.Timestamp.After(query.Until) {
		return false
	}
	return true
}
