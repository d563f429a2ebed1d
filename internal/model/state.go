package model

import "fmt"

// State is the lifecycle state of a firework or launch.
//
// The main firework path is WAITING → READY → RESERVED → RUNNING →
// COMPLETED or FIZZLED. PAUSED, DEFUSED and ARCHIVED are side states
// entered by explicit operator action and reversible except from the
// terminal states.
type State string

const (
	StateWaiting   State = "WAITING"
	StateReady     State = "READY"
	StateReserved  State = "RESERVED"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFizzled   State = "FIZZLED"
	StatePaused    State = "PAUSED"
	StateDefused   State = "DEFUSED"
	StateArchived  State = "ARCHIVED"
)

// AllStates lists every valid state.
var AllStates = []State{
	StateWaiting, StateReady, StateReserved, StateRunning,
	StateCompleted, StateFizzled, StatePaused, StateDefused, StateArchived,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateWaiting, StateReady, StateReserved, StateRunning,
		StateCompleted, StateFizzled, StatePaused, StateDefused, StateArchived:
		return true
	}
	return false
}

// IsTerminal reports whether s ends the run path. Refresh propagation
// stops at terminal nodes and operator side states cannot be entered
// from them.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFizzled
}

// allowedTransitions holds the legal state changes. Checkout's
// READY → RUNNING shortcut is listed alongside READY → RESERVED because
// the two sub-steps are observed as one unit by other callers.
var allowedTransitions = map[State][]State{
	StateWaiting:   {StateReady, StatePaused, StateDefused, StateArchived},
	StateReady:     {StateReserved, StateRunning, StateWaiting, StatePaused, StateDefused, StateArchived},
	StateReserved:  {StateRunning, StateReady, StatePaused, StateDefused, StateArchived},
	StateRunning:   {StateCompleted, StateFizzled, StateReady, StateDefused, StateArchived},
	StateCompleted: {StateReady, StateWaiting, StateArchived},
	StateFizzled:   {StateReady, StateWaiting, StateDefused, StateArchived},
	StatePaused:    {StateWaiting, StateReady, StateDefused, StateArchived},
	StateDefused:   {StateWaiting, StateReady, StateArchived},
	StateArchived:  {},
}

// CanTransition reports whether from → to is a legal state change.
// COMPLETED/FIZZLED → READY/WAITING is the explicit rerun path; it never
// happens as part of refresh propagation.
func CanTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseState validates a stored state string.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown state %q", s)
	}
	return st, nil
}
