package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrSessionExpired is returned when a request failed with an
	// unrecoverable auth failure and a forced logout was triggered.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized matches any 401 API error.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is returned when the API answered with a non-success status that
// the client did not recover from.
type APIError struct {
	StatusCode int
	Body       string
	Seq        uint64 // request sequence id, for diagnostic correlation
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api request %d returned %d: %s", e.Seq, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api request %d returned %d", e.Seq, e.StatusCode)
}

// Is reports whether this error matches the target error.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}

// TransportError is returned when no response was received at all. The
// client never retries these.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
