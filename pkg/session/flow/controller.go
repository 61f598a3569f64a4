package flow

import (
	"sync"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/clock"
	"dialog-hq/meridian/pkg/conversation"
)

// tracked is the per-session flow state.
type tracked struct {
	messages []conversation.Message
	control  Control
	history  []MetricsSnapshot
}

// Controller tracks conversations and enforces their flow limits.
//
// Controller is safe for concurrent use across sessions. Mutations on the
// same session must be serialized externally (see the session registry).
type Controller struct {
	sessions map[uuid.UUID]*tracked
	clock    clock.Clock

	mu sync.RWMutex
}

// NewController creates a flow controller using the system clock.
func NewController() *Controller {
	return NewControllerWithClock(clock.System())
}

// NewControllerWithClock creates a flow controller with an injected clock.
func NewControllerWithClock(clk clock.Clock) *Controller {
	return &Controller{
		sessions: make(map[uuid.UUID]*tracked),
		clock:    clk,
	}
}

// Attach begins tracking a session with the given control, or replaces
// the control of an already-tracked session. Message history and metric
// snapshots survive replacement.
func (c *Controller) Attach(sessionID uuid.UUID, control Control) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session, ok := c.sessions[sessionID]; ok {
		session.control = control
		return
	}
	c.sessions[sessionID] = &tracked{control: control}
}

// AddMessage appends a message to the session's tracked conversation,
// recomputes metrics, and appends a snapshot.
//
// When MaxTurns is configured and already reached, the message is
// rejected with ErrTurnLimitExceeded and nothing changes. After a
// successful append the control checks run; a violation error from them
// reports policy state, the appended message and snapshot stand.
func (c *Controller) AddMessage(sessionID uuid.UUID, msg conversation.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	if session.control.MaxTurns > 0 && len(session.messages) >= session.control.MaxTurns {
		return ErrTurnLimitExceeded
	}

	session.messages = append(session.messages, msg)
	session.history = append(session.history, c.snapshot(session.messages))

	return c.checkControlsLocked(session)
}

// CheckControls verifies the session's current metrics against its
// configured limits.
func (c *Controller) CheckControls(sessionID uuid.UUID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return c.checkControlsLocked(session)
}

// checkControlsLocked evaluates limits against the tracked messages.
// Caller must hold the lock.
func (c *Controller) checkControlsLocked(session *tracked) error {
	control := session.control

	if control.MaxTurns > 0 && len(session.messages) > control.MaxTurns {
		return ErrTurnLimitExceeded
	}
	if control.ResponseTimeout > 0 {
		if avgResponseTime(session.messages) > control.ResponseTimeout.Seconds() {
			return ErrResponseTimeoutExceeded
		}
	}
	if control.TopicLimit > 0 {
		if topicChanges(session.messages) > control.TopicLimit {
			return ErrTopicLimitExceeded
		}
	}
	return nil
}

// snapshot computes a metric snapshot over the full message history.
func (c *Controller) snapshot(messages []conversation.Message) MetricsSnapshot {
	return MetricsSnapshot{
		TotalMessages:   len(messages),
		AvgResponseTime: avgResponseTime(messages),
		TopicChanges:    topicChanges(messages),
		EngagementScore: engagement(messages),
		CoherenceScore:  coherence(messages),
		Timestamp:       c.clock.Now(),
	}
}

// Metrics returns the session's latest snapshot. A tracked session with
// no processed messages yet returns ErrNoMetrics.
func (c *Controller) Metrics(sessionID uuid.UUID) (MetricsSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return MetricsSnapshot{}, ErrSessionNotFound
	}
	if len(session.history) == 0 {
		return MetricsSnapshot{}, ErrNoMetrics
	}
	return session.history[len(session.history)-1], nil
}

// MetricsHistory returns a copy of the session's metric time series.
// Returns nil for untracked sessions.
func (c *Controller) MetricsHistory(sessionID uuid.UUID) []MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return nil
	}

	out := make([]MetricsSnapshot, len(session.history))
	copy(out, session.history)
	return out
}

// PruneMetrics truncates the session's metric time series to the newest
// keep snapshots, returning the number dropped.
func (c *Controller) PruneMetrics(sessionID uuid.UUID, keep int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionID]
	if !ok || keep < 0 || len(session.history) <= keep {
		return 0
	}

	dropped := len(session.history) - keep
	session.history = append(session.history[:0], session.history[dropped:]...)
	return dropped
}

// Control returns the session's active control.
func (c *Controller) Control(sessionID uuid.UUID) (Control, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return Control{}, ErrSessionNotFound
	}
	return session.control, nil
}

// UpdateControl replaces the session's control, reporting whether the
// session was tracked.
func (c *Controller) UpdateControl(sessionID uuid.UUID, control Control) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return false
	}
	session.control = control
	return true
}

// Messages returns a copy of the session's tracked message sequence.
func (c *Controller) Messages(sessionID uuid.UUID) []conversation.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[sessionID]
	if !ok {
		return nil
	}

	out := make([]conversation.Message, len(session.messages))
	copy(out, session.messages)
	return out
}

// EndSession drops the session's tracking state. Idempotent.
func (c *Controller) EndSession(sessionID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, sessionID)
}
