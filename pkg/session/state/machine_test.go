package state

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/clock"
)

// ============================================================================
// Initialization Tests
// ============================================================================

func TestMachine_Initialize(t *testing.T) {
	m := NewMachine()
	id := uuid.New()

	if err := m.Initialize(id); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	current, err := m.State(id)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if current != StateInitialized {
		t.Errorf("Expected %s, got %s", StateInitialized, current)
	}

	if history := m.History(id); len(history) != 0 {
		t.Errorf("Expected empty history, got %d records", len(history))
	}
}

func TestMachine_Initialize_Duplicate(t *testing.T) {
	m := NewMachine()
	id := uuid.New()

	if err := m.Initialize(id); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	err := m.Initialize(id)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

// ============================================================================
// Transition Tests
// ============================================================================

func TestMachine_Transition_Valid(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)

	if err := m.Transition(id, StateActive, "start", nil); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	current, _ := m.State(id)
	if current != StateActive {
		t.Errorf("Expected %s, got %s", StateActive, current)
	}

	history := m.History(id)
	if len(history) != 1 {
		t.Fatalf("Expected 1 history record, got %d", len(history))
	}
	if history[0].From != StateInitialized || history[0].To != StateActive {
		t.Errorf("Unexpected record: %s -> %s", history[0].From, history[0].To)
	}
	if history[0].Reason != "start" {
		t.Errorf("Expected reason %q, got %q", "start", history[0].Reason)
	}
}

func TestMachine_Transition_Invalid(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)
	m.Transition(id, StateActive, "", nil)
	m.Transition(id, StateCompleted, "", nil)

	err := m.Transition(id, StateActive, "", nil)
	if err == nil {
		t.Fatal("Expected error for Completed -> Active")
	}

	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidTransitionError, got %T", err)
	}
	if invalid.From != StateCompleted || invalid.To != StateActive {
		t.Errorf("Unexpected error fields: %s -> %s", invalid.From, invalid.To)
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("Expected errors.Is(err, ErrInvalidTransition) to hold")
	}

	// No side effects on failure.
	current, _ := m.State(id)
	if current != StateCompleted {
		t.Errorf("State changed on failed transition: %s", current)
	}
	if history := m.History(id); len(history) != 2 {
		t.Errorf("History changed on failed transition: %d records", len(history))
	}
}

func TestMachine_Transition_NotFound(t *testing.T) {
	m := NewMachine()

	err := m.Transition(uuid.New(), StateActive, "", nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestMachine_Transition_FullLifecycle(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)

	steps := []State{StateActive, StatePaused, StateActive, StateCompleted, StateError, StateInitialized}
	for _, to := range steps {
		if err := m.Transition(id, to, "", nil); err != nil {
			t.Fatalf("Transition to %s failed: %v", to, err)
		}
	}

	if history := m.History(id); len(history) != len(steps) {
		t.Errorf("Expected %d records, got %d", len(steps), len(history))
	}
}

func TestMachine_Transition_Timestamp(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	m := NewMachineWithClock(clk)
	id := uuid.New()
	m.Initialize(id)

	clk.Advance(30 * time.Second)
	m.Transition(id, StateActive, "", nil)

	history := m.History(id)
	if got := history[0].Timestamp; !got.Equal(start.Add(30 * time.Second)) {
		t.Errorf("Expected injected clock timestamp, got %v", got)
	}
}

// ============================================================================
// Query Tests
// ============================================================================

func TestMachine_CanTransition(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)

	if !m.CanTransition(id, StateActive) {
		t.Error("Expected Initialized -> Active to be permitted")
	}
	if m.CanTransition(id, StateCompleted) {
		t.Error("Expected Initialized -> Completed to be rejected")
	}
	if m.CanTransition(uuid.New(), StateActive) {
		t.Error("Expected unknown session to be rejected")
	}
}

func TestMachine_ValidTransitions(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)
	m.Transition(id, StateActive, "", nil)

	targets := m.ValidTransitions(id)
	if len(targets) != 3 {
		t.Fatalf("Expected 3 targets from Active, got %d", len(targets))
	}

	if targets := m.ValidTransitions(uuid.New()); targets != nil {
		t.Errorf("Expected nil for unknown session, got %v", targets)
	}
}

func TestMachine_Validate(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)

	if !m.Validate(id, StateInitialized) {
		t.Error("Expected Validate(Initialized) to be true")
	}
	if m.Validate(id, StateActive) {
		t.Error("Expected Validate(Active) to be false")
	}
	if m.Validate(uuid.New(), StateInitialized) {
		t.Error("Expected unknown session to validate false")
	}
}

// ============================================================================
// Reset and Clear Tests
// ============================================================================

func TestMachine_Reset_FromError(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)
	m.Transition(id, StateError, "boom", nil)

	if err := m.Reset(id); err != nil {
		t.Fatalf("Reset from Error failed: %v", err)
	}

	current, _ := m.State(id)
	if current != StateInitialized {
		t.Errorf("Expected %s after reset, got %s", StateInitialized, current)
	}
}

func TestMachine_Reset_FromActive(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)
	m.Transition(id, StateActive, "", nil)

	err := m.Reset(id)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected InvalidTransition from Active, got %v", err)
	}

	current, _ := m.State(id)
	if current != StateActive {
		t.Errorf("Reset from Active mutated state: %s", current)
	}
}

func TestMachine_Clear(t *testing.T) {
	m := NewMachine()
	id := uuid.New()
	m.Initialize(id)
	m.Transition(id, StateActive, "", nil)

	m.Clear(id)

	if _, err := m.State(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after clear, got %v", err)
	}
	if history := m.History(id); history != nil {
		t.Errorf("Expected nil history after clear, got %v", history)
	}

	// Idempotent.
	m.Clear(id)

	// Session can be re-initialized after clear.
	if err := m.Initialize(id); err != nil {
		t.Errorf("Initialize after Clear failed: %v", err)
	}
}
