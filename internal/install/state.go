package install

import "fmt"

// State is the phase of one installation run
type State int

const (
	StateNotStarted State = iota
	StateConnecting
	StateEnumerating
	StateDispatching
	StateAggregating
	StateDone
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateConnecting:
		return "connecting"
	case StateEnumerating:
		return "enumerating"
	case StateDispatching:
		return "dispatching"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether the run has finished
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// MarshalText encodes the state by name in JSON reports
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// canTransition lists the legal edges of the run state machine
func canTransition(from, to State) bool {
	switch from {
	case StateNotStarted:
		return to == StateConnecting
	case StateConnecting:
		return to == StateEnumerating || to == StateFailed
	case StateEnumerating:
		return to == StateDispatching || to == StateFailed
	case StateDispatching:
		return to == StateAggregating
	case StateAggregating:
		return to == StateDone
	}
	return false
}
