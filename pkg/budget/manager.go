package budget

import (
	"sync"
	"time"

	"dialog-hq/meridian/pkg/clock"
)

// Manager tracks token consumption against per-category quotas.
//
// Manager is safe for concurrent use; each method takes the manager lock,
// so an interleaved sequence of Allocate calls never overshoots a quota.
type Manager struct {
	maxTokens int
	quotas    map[Category]int
	usage     map[Category][]UsageRecord
	clock     clock.Clock

	mu sync.RWMutex
}

// NewManager creates a budget manager with quotas derived from maxTokens.
// Entries in quotas override the derived defaults per category.
func NewManager(maxTokens int, quotas map[Category]int) *Manager {
	return NewManagerWithClock(maxTokens, quotas, clock.System())
}

// NewManagerWithClock creates a budget manager with an injected clock.
func NewManagerWithClock(maxTokens int, quotas map[Category]int, clk clock.Clock) *Manager {
	effective := map[Category]int{
		CategoryPrompt:     maxTokens / 2,
		CategoryCompletion: maxTokens / 2,
		CategoryContext:    maxTokens / 4,
		CategoryTotal:      maxTokens,
	}
	for category, limit := range quotas {
		effective[category] = limit
	}

	usage := make(map[Category][]UsageRecord, len(Categories))
	for _, category := range Categories {
		usage[category] = nil
	}

	return &Manager{
		maxTokens: maxTokens,
		quotas:    effective,
		usage:     usage,
		clock:     clk,
	}
}

// CanAllocate reports whether count tokens fit under the category's quota.
func (m *Manager) CanAllocate(category Category, count int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.usedLocked(category)+count <= m.quotas[category]
}

// Allocate charges count tokens to the category. Returns false without
// any mutation when the quota would be exceeded.
func (m *Manager) Allocate(category Category, count int, metadata map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.allocateLocked(category, count, metadata)
}

// AllocateOrError is Allocate for callers that prefer a typed error; a
// rejection returns TokenLimitError carrying the shortfall. The reported
// Available is the headroom at the moment of rejection.
func (m *Manager) AllocateOrError(category Category, count int, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.allocateLocked(category, count, metadata) {
		return nil
	}
	return &TokenLimitError{
		Category:  category,
		Requested: count,
		Available: m.quotas[category] - m.usedLocked(category),
	}
}

// allocateLocked charges the category if the quota allows. Caller must
// hold the lock.
func (m *Manager) allocateLocked(category Category, count int, metadata map[string]any) bool {
	if m.usedLocked(category)+count > m.quotas[category] {
		return false
	}

	m.usage[category] = append(m.usage[category], UsageRecord{
		Count:     count,
		Category:  category,
		Timestamp: m.clock.Now(),
		Metadata:  metadata,
	})
	return true
}

// Used returns the tokens consumed in the category.
func (m *Manager) Used(category Category) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.usedLocked(category)
}

// Available returns the category's remaining headroom.
func (m *Manager) Available(category Category) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.quotas[category] - m.usedLocked(category)
}

// Quota returns the category's configured ceiling.
func (m *Manager) Quota(category Category) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.quotas[category]
}

// ResetUsage clears consumption for one category.
func (m *Manager) ResetUsage(category Category) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage[category] = nil
}

// ResetAllUsage clears consumption in every category.
func (m *Manager) ResetAllUsage() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, category := range Categories {
		m.usage[category] = nil
	}
}

// UpdateQuota replaces the category's ceiling. The update is rejected
// (returns false, no change) when the new limit is below current
// consumption, negative, or above the manager's global maximum.
func (m *Manager) UpdateQuota(category Category, newLimit int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if newLimit < 0 || newLimit > m.maxTokens {
		return false
	}
	if m.usedLocked(category) > newLimit {
		return false
	}

	m.quotas[category] = newLimit
	return true
}

// History returns the category's usage records within [since, until].
// Zero-valued bounds are open. The returned slice is a copy.
func (m *Manager) History(category Category, since, until time.Time) []UsageRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.usage[category]
	out := make([]UsageRecord, 0, len(records))
	for _, record := range records {
		if !since.IsZero() && record.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && record.Timestamp.After(until) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// Stats returns an aggregate view across every category.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Used:      make(map[Category]int, len(Categories)),
		Available: make(map[Category]int, len(Categories)),
		Quota:     make(map[Category]int, len(Categories)),
	}
	for _, category := range Categories {
		used := m.usedLocked(category)
		stats.Used[category] = used
		stats.Available[category] = m.quotas[category] - used
		stats.Quota[category] = m.quotas[category]
		stats.TotalAllocated += used
	}
	return stats
}

// usedLocked sums the category's records. Caller must hold the lock.
func (m *Manager) usedLocked(category Category) int {
	total := 0
	for _, record := range m.usage[category] {
		total += record.Count
	}
	return total
}
