package flow

import (
	"errors"
	"time"
)

// Control carries a session's flow limits. Zero-valued limits are
// disabled; a session may run without any.
type Control struct {
	// MaxTurns caps the number of tracked messages. Zero disables.
	MaxTurns int

	// ResponseTimeout caps the average response time. Zero disables.
	ResponseTimeout time.Duration

	// TopicLimit caps the number of detected topic changes. Zero disables.
	TopicLimit int

	// RequireAck marks the session as requiring explicit acknowledgment
	// between turns. The core records the flag; enforcement is the
	// caller's.
	RequireAck bool

	// MaintainContext marks the session as feeding the context store.
	MaintainContext bool
}

// DefaultControl returns the control applied when a session is attached
// without one: no limits, context maintenance on.
func DefaultControl() Control {
	return Control{MaintainContext: true}
}

// MetricsSnapshot is one point in a session's metric time series,
// appended after each processed message.
type MetricsSnapshot struct {
	// TotalMessages is the tracked message count at snapshot time.
	TotalMessages int

	// AvgResponseTime is the mean delta between consecutive messages,
	// in seconds.
	AvgResponseTime float64

	// TopicChanges is the number of adjacent message pairs flagged as a
	// topic change.
	TopicChanges int

	// EngagementScore is the 0-1 engagement blend.
	EngagementScore float64

	// CoherenceScore is the 0-1 coherence blend.
	CoherenceScore float64

	// Timestamp is when the snapshot was computed.
	Timestamp time.Time
}

// Error types for flow control failures.
var (
	// ErrSessionNotFound is returned when the session was never attached.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoMetrics is returned when a tracked session has no metric
	// snapshots yet.
	ErrNoMetrics = errors.New("no metrics recorded")

	// ErrTurnLimitExceeded is returned when Control.MaxTurns is reached.
	ErrTurnLimitExceeded = errors.New("turn limit exceeded")

	// ErrResponseTimeoutExceeded is returned when the average response
	// time exceeds Control.ResponseTimeout.
	ErrResponseTimeoutExceeded = errors.New("response timeout exceeded")

	// ErrTopicLimitExceeded is returned when topic changes exceed
	// Control.TopicLimit.
	ErrTopicLimitExceeded = errors.New("topic change limit exceeded")
)
