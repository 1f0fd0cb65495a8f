package orchestrator

import "fmt"

// RunState is the lifecycle state of an Orchestrator.
type RunState int32

const (
	Idle RunState = iota
	Running
	Aborting
	Completed
	Faulted
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Aborting:
		return "aborting"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no run is in progress in state s.
func (s RunState) Terminal() bool {
	return s == Idle || s == Completed || s == Faulted
}
