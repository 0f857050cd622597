package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by engine operations. Callers match them with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrNotFound means the record id does not exist.
	ErrNotFound = errors.New("permit not found")

	// ErrInvalidState means the transition is not allowed from the
	// record's current status. The record is left unchanged.
	ErrInvalidState = errors.New("invalid state for transition")

	// ErrUnauthorized means the actor's role does not match the approver
	// role required by the transition, or the actor is anonymous.
	ErrUnauthorized = errors.New("actor not authorized for transition")

	// ErrEmptyReason means a rejection was attempted without a reason.
	ErrEmptyReason = errors.New("rejection reason is required")

	// ErrReferenceGeneration means the reference sequence could not be
	// advanced atomically, even after retrying.
	ErrReferenceGeneration = errors.New("reference generation failed")
)

// invalidStateError wraps ErrInvalidState with the offending pair.
func invalidStateError(op string, current Status) error {
	return fmt.Errorf("%w: cannot %s from %q", ErrInvalidState, op, current)
}
