package state

import (
	"sync"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/clock"
)

// table is the fixed transition table. Not extensible at runtime.
var table = map[State][]State{
	StateInitialized: {StateActive, StateError},
	StateActive:      {StatePaused, StateCompleted, StateError},
	StatePaused:      {StateActive, StateCompleted, StateError},
	StateCompleted:   {StateError},
	StateError:       {StateInitialized},
}

// Machine tracks the lifecycle state and transition history of sessions.
//
// Machine is safe for concurrent use across sessions. Mutations on the same
// session must be serialized externally (see the session registry).
type Machine struct {
	states  map[uuid.UUID]State
	history map[uuid.UUID][]Transition
	clock   clock.Clock

	mu sync.RWMutex
}

// NewMachine creates a state machine using the system clock.
func NewMachine() *Machine {
	return NewMachineWithClock(clock.System())
}

// NewMachineWithClock creates a state machine with an injected clock.
func NewMachineWithClock(clk clock.Clock) *Machine {
	return &Machine{
		states:  make(map[uuid.UUID]State),
		history: make(map[uuid.UUID][]Transition),
		clock:   clk,
	}
}

// Initialize registers a new session in StateInitialized with empty history.
// Returns ErrAlreadyInitialized if the session already exists.
func (m *Machine) Initialize(sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[sessionID]; ok {
		return ErrAlreadyInitialized
	}

	m.states[sessionID] = StateInitialized
	m.history[sessionID] = nil
	return nil
}

// Transition moves the session to a new state, recording the change.
//
// Returns ErrSessionNotFound for unknown sessions and
// InvalidTransitionError when the table does not permit the edge. On
// failure the session's state and history are untouched.
func (m *Machine) Transition(sessionID uuid.UUID, to State, reason string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.states[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	if !allowed(current, to) {
		return &InvalidTransitionError{From: current, To: to}
	}

	m.history[sessionID] = append(m.history[sessionID], Transition{
		ID:        uuid.New(),
		From:      current,
		To:        to,
		Timestamp: m.clock.Now(),
		Reason:    reason,
		Metadata:  metadata,
	})
	m.states[sessionID] = to
	return nil
}

// State returns the session's current state.
func (m *Machine) State(sessionID uuid.UUID) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current, ok := m.states[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return current, nil
}

// Validate reports whether the session is in the expected state.
// Unknown sessions validate false against every state.
func (m *Machine) Validate(sessionID uuid.UUID, expected State) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current, ok := m.states[sessionID]
	return ok && current == expected
}

// CanTransition reports whether the table permits moving the session to the
// given state. Returns false for unknown sessions.
func (m *Machine) CanTransition(sessionID uuid.UUID, to State) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current, ok := m.states[sessionID]
	return ok && allowed(current, to)
}

// ValidTransitions returns the states the session may move to from its
// current state. Returns nil for unknown sessions.
func (m *Machine) ValidTransitions(sessionID uuid.UUID) []State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current, ok := m.states[sessionID]
	if !ok {
		return nil
	}

	targets := table[current]
	out := make([]State, len(targets))
	copy(out, targets)
	return out
}

// History returns a copy of the session's transition records in order.
// Returns nil for unknown sessions.
func (m *Machine) History(sessionID uuid.UUID) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, ok := m.history[sessionID]
	if !ok {
		return nil
	}

	out := make([]Transition, len(records))
	copy(out, records)
	return out
}

// Reset attempts to return the session to StateInitialized.
//
// The transition table only permits this from StateError; from any other
// state Reset fails with InvalidTransitionError.
func (m *Machine) Reset(sessionID uuid.UUID) error {
	return m.Transition(sessionID, StateInitialized, "reset", nil)
}

// Clear drops the session's state and history. Idempotent.
func (m *Machine) Clear(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, sessionID)
	delete(m.history, sessionID)
}

// allowed reports whether the table permits the edge from -> to.
func allowed(from, to State) bool {
	for _, target := range table[from] {
		if target == to {
			return true
		}
	}
	return false
}
