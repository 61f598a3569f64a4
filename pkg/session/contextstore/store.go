package contextstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/clock"
)

// cleanupInterval is the minimum spacing between TTL sweeps per session.
const cleanupInterval = 60 * time.Second

// optimizeOccupancy is the ring occupancy fraction at which Optimize
// compacts by importance.
const optimizeOccupancy = 0.9

// sessionContext is the per-session ring plus its scoring state.
type sessionContext struct {
	items         []Item
	threshold     float64
	lastCleanup   time.Time
	lastProcessed time.Time
}

// Store maintains the bounded, scored memory for every session.
//
// Store is safe for concurrent use across sessions. Mutations on the same
// session must be serialized externally (see the session registry).
type Store struct {
	config   Config
	sessions map[uuid.UUID]*sessionContext
	clock    clock.Clock

	mu sync.RWMutex
}

// NewStore creates a context store using the system clock.
func NewStore(config Config) *Store {
	return NewStoreWithClock(config, clock.System())
}

// NewStoreWithClock creates a context store with an injected clock.
func NewStoreWithClock(config Config, clk clock.Clock) *Store {
	return &Store{
		config:   config.withDefaults(),
		sessions: make(map[uuid.UUID]*sessionContext),
		clock:    clk,
	}
}

// Ensure creates the session's ring with the given importance threshold.
// A zero threshold means the store's configured default; an all-admitting
// ring takes SetThreshold(id, 0) after creation. Subsequent calls are
// no-ops; the threshold argument is ignored once the session exists.
func (s *Store) Ensure(sessionID uuid.UUID, importanceThreshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return
	}

	if importanceThreshold == 0 {
		importanceThreshold = s.config.DefaultThreshold
	}
	s.sessions[sessionID] = &sessionContext{
		items:       make([]Item, 0, s.config.MaxContextSize),
		threshold:   importanceThreshold,
		lastCleanup: s.clock.Now(),
	}
}

// AddItem appends an item to the session's ring, evicting the oldest item
// first when the ring is at capacity. Eviction here is purely FIFO;
// importance-based compaction is Optimize's job.
//
// Returns ErrSessionNotFound if Ensure was never called and
// ErrContentRequired for nil or empty string content.
func (s *Store) AddItem(sessionID uuid.UUID, content any, importance float64, opts ItemOptions) (uuid.UUID, error) {
	if content == nil {
		return uuid.Nil, ErrContentRequired
	}
	if text, ok := content.(string); ok && text == "" {
		return uuid.Nil, ErrContentRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}

	item := Item{
		ID:         uuid.New(),
		Content:    content,
		Timestamp:  s.clock.Now(),
		Importance: importance,
		TTL:        opts.TTL,
		Metadata:   opts.Metadata,
	}

	if len(sc.items) >= s.config.MaxContextSize {
		drop := len(sc.items) - s.config.MaxContextSize + 1
		sc.items = append(sc.items[:0], sc.items[drop:]...)
	}
	sc.items = append(sc.items, item)

	return item.ID, nil
}

// Get returns the session's items in ring (insertion) order, keeping only
// those with importance at or above the floor. A floor of 0 returns every
// unexpired item. Returns nil for unknown sessions.
//
// TTL-expired items are filtered here even before CleanupExpired has
// physically removed them, so a stale item never reaches a prompt window.
func (s *Store) Get(sessionID uuid.UUID, minImportance float64) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	now := s.clock.Now()
	out := make([]Item, 0, len(sc.items))
	for _, item := range sc.items {
		if item.Importance >= minImportance && !expired(item, now) {
			out = append(out, item)
		}
	}
	return out
}

// UpdateImportance sets the importance of an existing item.
func (s *Store) UpdateImportance(sessionID, itemID uuid.UUID, importance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	for i := range sc.items {
		if sc.items[i].ID == itemID {
			sc.items[i].Importance = importance
			return nil
		}
	}
	return ErrItemNotFound
}

// Remove deletes an item from the session's ring.
func (s *Store) Remove(sessionID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	for i := range sc.items {
		if sc.items[i].ID == itemID {
			sc.items = append(sc.items[:i], sc.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear drops every item in the session's ring. The session itself stays
// registered.
func (s *Store) Clear(sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	sc.items = sc.items[:0]
	return nil
}

// ClearBelow drops every item whose importance is below the floor.
func (s *Store) ClearBelow(sessionID uuid.UUID, minImportanceToKeep float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	kept := sc.items[:0]
	for _, item := range sc.items {
		if item.Importance >= minImportanceToKeep {
			kept = append(kept, item)
		}
	}
	sc.items = kept
	return nil
}

// CleanupExpired removes TTL-expired items from the session's ring.
//
// Sweeps are rate-limited to once per minute per session; a call inside
// that window returns 0 without scanning. Items without a TTL never
// expire.
func (s *Store) CleanupExpired(sessionID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}

	now := s.clock.Now()
	if now.Sub(sc.lastCleanup) < cleanupInterval {
		return 0, nil
	}
	sc.lastCleanup = now

	kept := sc.items[:0]
	removed := 0
	for _, item := range sc.items {
		if expired(item, now) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	sc.items = kept
	return removed, nil
}

// Optimize compacts the session's ring by importance once occupancy
// reaches 90% of capacity. Items are re-ranked by importance descending
// with ties broken by most recent timestamp, then truncated to capacity.
// This is the only operation that abandons insertion order.
func (s *Store) Optimize(sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	if float64(len(sc.items)) < float64(s.config.MaxContextSize)*optimizeOccupancy {
		return nil
	}

	sort.SliceStable(sc.items, func(i, j int) bool {
		if sc.items[i].Importance != sc.items[j].Importance {
			return sc.items[i].Importance > sc.items[j].Importance
		}
		return sc.items[i].Timestamp.After(sc.items[j].Timestamp)
	})

	if len(sc.items) > s.config.MaxContextSize {
		sc.items = sc.items[:s.config.MaxContextSize]
	}
	return nil
}

// Size returns the number of items in the session's ring, or 0 for
// unknown sessions.
func (s *Store) Size(sessionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(sc.items)
}

// Threshold returns the session's importance threshold.
func (s *Store) Threshold(sessionID uuid.UUID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	return sc.threshold, nil
}

// SetThreshold replaces the session's importance threshold.
func (s *Store) SetThreshold(sessionID uuid.UUID, threshold float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sc.threshold = threshold
	return nil
}

// Drop removes the session and its ring entirely. Idempotent.
func (s *Store) Drop(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// Capacity returns the per-session ring capacity.
func (s *Store) Capacity() int {
	return s.config.MaxContextSize
}

// expired reports whether the item's TTL has elapsed at now.
func expired(item Item, now time.Time) bool {
	if item.TTL == 0 {
		return false
	}
	return now.Sub(item.Timestamp) > item.TTL
}
