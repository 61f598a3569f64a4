package contextstore

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Item is a single scored unit of working memory, usually the text of a
// past message. Items are owned by their session's ring and destroyed on
// eviction, expiry, removal, or clear.
type Item struct {
	// ID uniquely identifies the item.
	ID uuid.UUID

	// Content is the opaque payload.
	Content any

	// Timestamp is when the item was added to the ring.
	Timestamp time.Time

	// Importance is the item's 0-1 ranking score.
	Importance float64

	// TTL is the item's lifetime. Zero means the item never expires.
	TTL time.Duration

	// Metadata carries caller-defined annotations.
	Metadata map[string]any
}

// ItemOptions carries the optional fields of an insert.
type ItemOptions struct {
	// TTL is the item's lifetime. Zero means the item never expires.
	TTL time.Duration

	// Metadata carries caller-defined annotations.
	Metadata map[string]any
}

// Error types for context store failures.
var (
	// ErrSessionNotFound is returned when Ensure was never called for the
	// session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrItemNotFound is returned when the referenced item is not in the
	// session's ring.
	ErrItemNotFound = errors.New("context item not found")

	// ErrContentRequired is returned when an insert carries no content.
	ErrContentRequired = errors.New("content required")
)

// Config configures a Store.
type Config struct {
	// MaxContextSize is the per-session ring capacity.
	// Default: 1000 items.
	MaxContextSize int

	// DefaultThreshold is the importance threshold applied when Ensure is
	// called without an explicit one. Default: 0.5.
	DefaultThreshold float64
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.MaxContextSize == 0 {
		c.MaxContextSize = 1000
	}
	if c.DefaultThreshold == 0 {
		c.DefaultThreshold = 0.5
	}
	return c
}
