package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/archive"
	"dialog-hq/meridian/pkg/budget"
	"dialog-hq/meridian/pkg/clock"
	"dialog-hq/meridian/pkg/conversation"
	"dialog-hq/meridian/pkg/journal"
	"dialog-hq/meridian/pkg/session/contextstore"
	"dialog-hq/meridian/pkg/session/flow"
	"dialog-hq/meridian/pkg/session/state"
	"dialog-hq/meridian/pkg/tokens"
)

// Registry creates, operates, and tears down sessions. It owns the
// shared state machine, context store, and flow controller, plus one
// token budget manager per session.
type Registry struct {
	config Config
	deps   Deps
	logger *slog.Logger

	machine *state.Machine
	store   *contextstore.Store
	flows   *flow.Controller

	mu      sync.RWMutex
	budgets map[uuid.UUID]*budget.Manager
	locks   map[uuid.UUID]*sync.Mutex
}

// New builds a Registry from config and optional collaborators.
func New(config Config, deps Deps) *Registry {
	config.ApplyDefaults()
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Estimator == nil {
		deps.Estimator = tokens.NewSimpleEstimator(0)
	}

	return &Registry{
		config: config,
		deps:   deps,
		logger: deps.Logger.With("component", "session-registry"),
		machine: state.NewMachineWithClock(deps.Clock),
		store: contextstore.NewStoreWithClock(contextstore.Config{
			MaxContextSize:   config.MaxContextSize,
			DefaultThreshold: config.DefaultImportanceThreshold,
		}, deps.Clock),
		flows:   flow.NewControllerWithClock(deps.Clock),
		budgets: make(map[uuid.UUID]*budget.Manager),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Create registers a new session and returns its id. The session
// starts in the initialized state with default flow controls.
func (r *Registry) Create() (uuid.UUID, error) {
	sessionID := uuid.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.machine.Initialize(sessionID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.store.Ensure(sessionID, r.config.DefaultImportanceThreshold)
	r.flows.Attach(sessionID, flow.DefaultControl())
	r.budgets[sessionID] = budget.NewManagerWithClock(r.config.MaxTokens, r.config.TokenQuotas, r.deps.Clock)
	r.locks[sessionID] = &sync.Mutex{}

	r.deps.Metrics.RecordSessionCreated()
	r.logger.Debug("session created", "session_id", sessionID)
	return sessionID, nil
}

// sessionLock returns the per-session mutex, or ErrSessionNotFound.
func (r *Registry) sessionLock(sessionID uuid.UUID) (*sync.Mutex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lock, ok := r.locks[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return lock, nil
}

// Append records a message on an active session. The message feeds
// the flow metrics, and messages scoring above the session's
// importance threshold enter the context store when the session's
// controls keep context.
//
// A flow control violation (turn limit, response timeout, topic limit)
// is returned as an error. Except for the turn limit, which rejects
// the message outright, the message is still recorded.
func (r *Registry) Append(sessionID uuid.UUID, msg conversation.Message) error {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	if !r.machine.Validate(sessionID, state.StateActive) {
		current, stateErr := r.machine.State(sessionID)
		if stateErr != nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return fmt.Errorf("%w: session is %s", ErrSessionNotActive, current)
	}

	if msg.Tokens == 0 {
		msg.Tokens = r.deps.Estimator.EstimateText(msg.Content)
	}

	flowErr := r.flows.AddMessage(sessionID, msg)
	if flowErr != nil {
		r.recordViolation(flowErr)
	}
	if errors.Is(flowErr, flow.ErrTurnLimitExceeded) {
		return flowErr
	}

	control, err := r.flows.Control(sessionID)
	if err == nil && control.MaintainContext {
		if _, err := r.store.Ingest(sessionID, []conversation.Message{msg}); err != nil {
			return fmt.Errorf("failed to ingest message: %w", err)
		}
		r.deps.Metrics.UpdateContextOccupancy(sessionID.String(), r.store.Size(sessionID))
	}
	return flowErr
}

func (r *Registry) recordViolation(err error) {
	switch {
	case errors.Is(err, flow.ErrTurnLimitExceeded):
		r.deps.Metrics.RecordFlowViolation("max_turns")
	case errors.Is(err, flow.ErrResponseTimeoutExceeded):
		r.deps.Metrics.RecordFlowViolation("response_timeout")
	case errors.Is(err, flow.ErrTopicLimitExceeded):
		r.deps.Metrics.RecordFlowViolation("topic_limit")
	}
}

// Allocate reserves tokens from the session's budget. Accepted
// allocations are journaled; rejected ones return a TokenLimitError.
func (r *Registry) Allocate(ctx context.Context, sessionID uuid.UUID, category budget.Category, count int, metadata map[string]any) error {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	manager := r.budget(sessionID)
	if manager == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if err := manager.AllocateOrError(category, count, metadata); err != nil {
		r.deps.Metrics.RecordTokenAllocation(string(category), false)
		return err
	}
	r.deps.Metrics.RecordTokenAllocation(string(category), true)
	r.deps.Metrics.UpdateTokensUsed(sessionID.String(), string(category), manager.Used(category))

	if r.deps.Journal != nil {
		record := journal.Record{
			ID:        uuid.New(),
			SessionID: sessionID,
			Category:  string(category),
			Count:     count,
			Timestamp: r.deps.Clock.Now(),
			Metadata:  metadata,
		}
		if err := r.deps.Journal.Append(ctx, record); err != nil {
			r.logger.Warn("failed to journal allocation",
				"session_id", sessionID, "category", category, "error", err)
		}
	}
	return nil
}

func (r *Registry) budget(sessionID uuid.UUID) *budget.Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.budgets[sessionID]
}

// Transition moves the session to a new lifecycle state.
func (r *Registry) Transition(sessionID uuid.UUID, to state.State, reason string) error {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	return r.machine.Transition(sessionID, to, reason, nil)
}

// Activate moves the session to the active state.
func (r *Registry) Activate(sessionID uuid.UUID, reason string) error {
	return r.Transition(sessionID, state.StateActive, reason)
}

// Pause moves the session to the paused state.
func (r *Registry) Pause(sessionID uuid.UUID, reason string) error {
	return r.Transition(sessionID, state.StatePaused, reason)
}

// Resume moves a paused session back to active.
func (r *Registry) Resume(sessionID uuid.UUID, reason string) error {
	return r.Transition(sessionID, state.StateActive, reason)
}

// Complete moves the session to the completed state.
func (r *Registry) Complete(sessionID uuid.UUID, reason string) error {
	return r.Transition(sessionID, state.StateCompleted, reason)
}

// Fail moves the session to the error state.
func (r *Registry) Fail(sessionID uuid.UUID, reason string) error {
	return r.Transition(sessionID, state.StateError, reason)
}

// Reset recovers a session from the error state back to initialized.
func (r *Registry) Reset(sessionID uuid.UUID) error {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	return r.machine.Reset(sessionID)
}

// State returns the session's current lifecycle state.
func (r *Registry) State(sessionID uuid.UUID) (state.State, error) {
	current, err := r.machine.State(sessionID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return current, nil
}

// Context returns the session's context items at or above the
// importance floor, newest first among equals.
func (r *Registry) Context(sessionID uuid.UUID, minImportance float64) []contextstore.Item {
	return r.store.Get(sessionID, minImportance)
}

// Metrics returns the latest flow metric snapshot for the session.
func (r *Registry) Metrics(sessionID uuid.UUID) (flow.MetricsSnapshot, error) {
	return r.flows.Metrics(sessionID)
}

// Messages returns the session's recorded messages in order.
func (r *Registry) Messages(sessionID uuid.UUID) []conversation.Message {
	return r.flows.Messages(sessionID)
}

// Usage returns the session's token budget statistics.
func (r *Registry) Usage(sessionID uuid.UUID) (budget.Stats, error) {
	manager := r.budget(sessionID)
	if manager == nil {
		return budget.Stats{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return manager.Stats(), nil
}

// Budget exposes the session's token budget manager.
func (r *Registry) Budget(sessionID uuid.UUID) (*budget.Manager, error) {
	manager := r.budget(sessionID)
	if manager == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return manager, nil
}

// Control returns the session's flow controls.
func (r *Registry) Control(sessionID uuid.UUID) (flow.Control, error) {
	return r.flows.Control(sessionID)
}

// SetControl replaces the session's flow controls.
func (r *Registry) SetControl(sessionID uuid.UUID, control flow.Control) error {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	if !r.flows.UpdateControl(sessionID, control) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// Sessions returns the ids of all live sessions.
func (r *Registry) Sessions() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.locks))
	for id := range r.locks {
		ids = append(ids, id)
	}
	return ids
}

// Sweep runs periodic maintenance on one session. Expired context
// items are removed, the store is compacted if near capacity, and old
// metric snapshots are pruned. It reports how many context items were
// removed.
func (r *Registry) Sweep(sessionID uuid.UUID) (int, error) {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return 0, err
	}
	lock.Lock()
	defer lock.Unlock()

	removed, err := r.store.CleanupExpired(sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired items: %w", err)
	}
	if removed > 0 {
		r.deps.Metrics.RecordContextEviction("expired", removed)
	}

	if err := r.store.Optimize(sessionID); err != nil {
		return removed, fmt.Errorf("failed to optimize context: %w", err)
	}

	r.flows.PruneMetrics(sessionID, r.config.MetricsRetention)
	r.deps.Metrics.UpdateContextOccupancy(sessionID.String(), r.store.Size(sessionID))
	return removed, nil
}

// Teardown archives the session's final record and releases all of
// its structures. If archiving fails the session is left intact so
// the caller can retry.
func (r *Registry) Teardown(ctx context.Context, sessionID uuid.UUID) error {
	lock, err := r.sessionLock(sessionID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	if r.deps.Archive != nil {
		finalState, err := r.machine.State(sessionID)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		entry := archive.Entry{
			SessionID:   sessionID,
			FinalState:  finalState,
			ArchivedAt:  r.deps.Clock.Now(),
			Transitions: r.machine.History(sessionID),
			Metrics:     r.flows.MetricsHistory(sessionID),
		}
		if err := r.deps.Archive.Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to archive session: %w", err)
		}
	}

	r.machine.Clear(sessionID)
	r.store.Drop(sessionID)
	r.flows.EndSession(sessionID)

	r.mu.Lock()
	delete(r.budgets, sessionID)
	delete(r.locks, sessionID)
	r.mu.Unlock()

	r.deps.Metrics.RecordSessionTorndown(sessionID.String())
	r.logger.Debug("session torn down", "session_id", sessionID)
	return nil
}
