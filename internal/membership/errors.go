package membership

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateMembership means the user already holds an active
	// membership on the project. The desired state already holds.
	ErrDuplicateMembership = errors.New("user is already a member of this project")
	// ErrCapacityExceeded is the advisory rejection raised before submitting an add.
	ErrCapacityExceeded = errors.New("project team is at capacity")
	ErrMemberNotFound   = errors.New("project member not found")
	// ErrOperationPending gates repeat submissions for the same (project, user).
	ErrOperationPending = errors.New("another change for this member is still pending")
	ErrInvalidRequest   = errors.New("invalid membership request")
)

// TransportError is a network or server failure with no state change. The
// whole operation is safe to retry.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("membership: %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("membership: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
