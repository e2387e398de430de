package authapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInvalidToken is returned when the auth service rejects a token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnreachable is returned when the auth service cannot be contacted.
	ErrUnreachable = errors.New("auth service unreachable")
)

// StatusError is returned when the auth service answered with a non-success
// HTTP status. It is distinct from transport failures, which wrap
// ErrUnreachable instead.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("auth service returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("auth service returned %d", e.StatusCode)
}

// Is reports whether this error matches the target error. Unauthorized
// statuses match ErrInvalidToken.
func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidToken && e.StatusCode == 401
}

// UnreachableError is returned when no response was received at all.
type UnreachableError struct {
	Cause error
}

func (e *UnreachableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth service unreachable: %v", e.Cause)
	}
	return "auth service unreachable"
}

func (e *UnreachableError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}
