// Package state implements the per-session lifecycle state machine.
//
// Each session moves through a fixed set of states with a fixed transition
// table:
//
//	Initialized -> Active, Error
//	Active      -> Paused, Completed, Error
//	Paused      -> Active, Completed, Error
//	Completed   -> Error
//	Error       -> Initialized
//
// The table is not extensible at runtime. Every successful transition
// appends an immutable Transition record to the session's history; failed
// transitions have no side effects.
//
// # Basic Usage
//
//	machine := state.NewMachine()
//
//	if err := machine.Initialize(sessionID); err != nil {
//	    return err
//	}
//
//	if err := machine.Transition(sessionID, state.StateActive, "first message", nil); err != nil {
//	    return err
//	}
//
//	current, _ := machine.State(sessionID)
//
// # Reset Semantics
//
// Reset delegates to Transition toward StateInitialized. The table only
// permits that edge from StateError, so Reset fails with
// InvalidTransitionError from every other state. Callers recovering a
// non-error session should Clear it and Initialize again instead.
package state
