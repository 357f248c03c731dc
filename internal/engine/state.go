package engine

import "fmt"

// State is the phase of a Controller.
type State int

const (
	StateNew State = iota
	StateReady
	StateInitialized
	StateComputing
	StateDone
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateInitialized:
		return "initialized"
	case StateComputing:
		return "computing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}
