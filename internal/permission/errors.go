package permission

import (
	"errors"
	"fmt"
)

// ErrMembershipMissing means the principal has no active membership in the
// target tenant. It is reported separately from insufficient capability so
// audit trails can tell the two apart.
var ErrMembershipMissing = errors.New("user does not belong to tenant")

// InsufficientError means a membership exists but the resolved bitmask does
// not satisfy the requirement.
type InsufficientError struct {
	Required  Bitmask
	Effective Bitmask
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("permission denied: %s required", e.Required)
}

// ResolutionError wraps an unexpected data-access failure during resolution.
// The resolver fails closed: a ResolutionError is never an allow decision.
type ResolutionError struct {
	Op  string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("permission resolution failed during %s: %v", e.Op, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
