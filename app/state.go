// ABOUTME: Client-side state machine for the single in-flight record
// ABOUTME: Idle/Capturing/Extracting/Reviewing/Editing with checked transitions
package app

import "fmt"

// State is the lifecycle position of the one record being worked on.
// At most one record is in flight at a time; the model does not
// support concurrent multi-record editing.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateExtracting
	StateReviewing
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateExtracting:
		return "extracting"
	case StateReviewing:
		return "reviewing"
	case StateEditing:
		return "editing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions enumerates the legal moves. Reviewing is reachable from
// Extracting (a fresh draft) or straight from Idle (opening a
// persisted record); Editing only ever moves between Reviewing and
// Idle.
var transitions = map[State][]State{
	StateIdle:       {StateCapturing, StateExtracting, StateReviewing},
	StateCapturing:  {StateExtracting, StateIdle},
	StateExtracting: {StateReviewing, StateIdle},
	StateReviewing:  {StateEditing, StateIdle},
	StateEditing:    {StateReviewing, StateIdle},
}

func (s State) canMove(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// move validates and applies a transition.
func (c *Controller) move(to State) error {
	if !c.state.canMove(to) {
		return fmt.Errorf("illegal transition %s -> %s", c.state, to)
	}
	c.state = to
	return nil
}
