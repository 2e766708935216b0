package phase

import (
	"errors"
	"fmt"
)

var ErrUnknownEvent = errors.New("phase: unknown event")

// ErrNoTransition indicates the event is not allowed from the current state.
type ErrNoTransition struct {
	State State
	Event Event
}

func (e *ErrNoTransition) Error() string {
	return fmt.Sprintf("phase: no transition from state '%s' for event '%s'", e.State, e.Event)
}

// IsNoTransitionError reports whether err is an *ErrNoTransition.
func IsNoTransitionError(err error) bool {
	var e *ErrNoTransition
	return errors.As(err, &e)
}
