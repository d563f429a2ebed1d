package launchpad

import (
	"errors"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// InvalidTransitionError reports a requested state change that is
// illegal from the firework's current state, such as checking out a
// firework that is not READY. The caller decides whether to retry
// against a different firework.
type InvalidTransitionError struct {
	FireworkID int64
	From       model.State
	To         model.State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("firework %d: illegal transition %s → %s", e.FireworkID, e.From, e.To)
}

// IsInvalidTransition returns true if the error is an
// InvalidTransitionError. Uses errors.As to handle wrapped errors.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
