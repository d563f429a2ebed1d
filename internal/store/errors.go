package store

import (
	"errors"
	"fmt"
)

// Entity kinds used in NotFoundError.
const (
	KindFirework = "firework"
	KindWorkflow = "workflow"
	KindLaunch   = "launch"
	KindMapping  = "workflow mapping"
)

// NotFoundError reports a lookup of an entity id that does not exist.
// Always surfaced to the caller, never silently defaulted.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// IsNotFound returns true if the error is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConsistencyError reports disagreement between the membership index
// and workflow payloads, or a workflow referencing an absent firework.
// It means the composite-write contract was violated elsewhere; the
// in-flight operation aborts rather than patching over it.
type ConsistencyError struct {
	Message    string
	WorkflowID int64
	FireworkID int64
}

func (e *ConsistencyError) Error() string {
	if e.FireworkID != 0 {
		return fmt.Sprintf("consistency violation: %s (wf=%d, fw=%d)", e.Message, e.WorkflowID, e.FireworkID)
	}
	return fmt.Sprintf("consistency violation: %s (wf=%d)", e.Message, e.WorkflowID)
}

// IsConsistencyError returns true if the error is a ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// ErrCounterExhausted means an id counter would overflow int64. The
// allocator fails closed rather than wrapping.
var ErrCounterExhausted = errors.New("id counter exhausted")

// ErrClaimLost means a claim transaction found the firework's state
// changed since selection. Not a failure of the overall checkout, which
// retries against a freshly selected firework.
var ErrClaimLost = errors.New("firework claim lost")

// IsClaimLost returns true if the error wraps ErrClaimLost.
func IsClaimLost(err error) bool {
	return errors.Is(err, ErrClaimLost)
}
