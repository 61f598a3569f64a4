// Package contextstore implements the bounded, importance-scored working
// memory used to assemble prompt windows.
//
// Each session owns a fixed-capacity ring of context items. Insertion is
// FIFO: when the ring is full the oldest item is dropped regardless of
// importance. Importance only governs two separate, periodic operations:
//
//   - Optimize: when occupancy reaches 90% of capacity, re-rank by
//     importance (ties broken by recency) and truncate to capacity.
//   - CleanupExpired: drop items whose TTL has elapsed, rate-limited to
//     once per minute per session.
//
// # Ingestion
//
// Ingest scores raw conversation messages and admits those that clear the
// session's importance threshold:
//
//	importance = 0.3*min(len(content)/500, 1)
//	           + 0.4*(1.0 for user messages, 0.8 otherwise)
//	           + 0.3*max(0, 1 - age_seconds/3600)
//
// Only messages newer than the session's last processed timestamp are
// considered, so repeated Ingest calls with a growing message slice are
// idempotent over the already-seen prefix.
//
// # Sessions
//
// Ensure creates a session's ring; every other mutating operation fails
// with ErrSessionNotFound until it has been called. Clear removes items
// but keeps the session registered.
package contextstore
