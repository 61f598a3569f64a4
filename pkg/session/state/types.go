package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is a session lifecycle state.
type State string

const (
	// StateInitialized is the starting state of every session.
	StateInitialized State = "initialized"

	// StateActive is a session currently processing messages.
	StateActive State = "active"

	// StatePaused is a session suspended by the caller.
	StatePaused State = "paused"

	// StateCompleted is a session that finished normally.
	StateCompleted State = "completed"

	// StateError is a session that failed; the only state a session can
	// be re-initialized from.
	StateError State = "error"
)

// Transition records a single state change. Records are append-only and
// never mutated after creation.
type Transition struct {
	// ID uniquely identifies the transition record.
	ID uuid.UUID

	// From is the state the session left.
	From State

	// To is the state the session entered.
	To State

	// Timestamp is when the transition occurred.
	Timestamp time.Time

	// Reason is an optional caller-supplied explanation.
	Reason string

	// Metadata carries caller-defined annotations.
	Metadata map[string]any
}

// Error types for state machine failures.
var (
	// ErrSessionNotFound is returned when the session was never initialized
	// or has been cleared.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAlreadyInitialized is returned when Initialize is called for a
	// session that already exists.
	ErrAlreadyInitialized = errors.New("session already initialized")

	// ErrInvalidTransition is the base error wrapped by
	// InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// InvalidTransitionError reports a transition not permitted by the table.
type InvalidTransitionError struct {
	// From is the session's current state.
	From State

	// To is the requested target state.
	To State
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// Unwrap returns ErrInvalidTransition for errors.Is matching.
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
