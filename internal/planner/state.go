package planner

import "fmt"

// State tracks a decision through its lifecycle. Preprocessing is
// flag-driven but the lifecycle is explicit: a decision is planned,
// executed, and ends done or failed.
type State int

const (
	StateNotPlanned State = iota
	StatePlanned
	StateInProgress
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlanned:
		return "planned"
	case StateInProgress:
		return "in-progress"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "not-planned"
	}
}

// State returns the decision's current lifecycle state.
func (d *Decision) State() State {
	return d.state
}

// Begin transitions Planned → InProgress.
func (d *Decision) Begin() error {
	if d.state != StatePlanned {
		return fmt.Errorf("cannot begin preprocessing from state %s", d.state)
	}
	d.state = StateInProgress
	return nil
}

// Complete transitions InProgress → Done.
func (d *Decision) Complete() error {
	if d.state != StateInProgress {
		return fmt.Errorf("cannot complete preprocessing from state %s", d.state)
	}
	d.state = StateDone
	return nil
}

// Fail transitions InProgress → Failed.
func (d *Decision) Fail() error {
	if d.state != StateInProgress {
		return fmt.Errorf("cannot fail preprocessing from state %s", d.state)
	}
	d.state = StateFailed
	return nil
}
