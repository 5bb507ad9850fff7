package gateway

import (
	"errors"
	"fmt"
)

// Common submission errors
var (
	// ErrSubmissionFailed is matched by every error returned from a Gateway.
	// Callers do not distinguish network, server-side validation or timeout failures.
	ErrSubmissionFailed = errors.New("invoice submission failed")

	// ErrInvalidConfiguration is returned when a gateway is constructed without
	// the settings it needs.
	ErrInvalidConfiguration = errors.New("invalid gateway configuration")

	// ErrRejected is returned when the remote API answers with errors.
	ErrRejected = errors.New("invoice rejected by remote API")

	// ErrUnexpectedResponse is returned when the remote API answers with a body
	// that does not contain a created invoice.
	ErrUnexpectedResponse = errors.New("unexpected response from remote API")
)

// Error wraps a failed gateway call with the operation and transport details.
// Details are for logs only and must not be shown to the user.
type Error struct {
	// Op is the operation that failed (e.g., "CreateInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// StatusCode is the HTTP status returned by the remote API (if any).
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Details != "":
		return fmt.Sprintf("gateway: %s failed (status %d): %s: %v", e.Op, e.StatusCode, e.Details, e.Err)
	case e.Details != "":
		return fmt.Sprintf("gateway: %s failed: %s: %v", e.Op, e.Details, e.Err)
	default:
		return fmt.Sprintf("gateway: %s failed: %v", e.Op, e.Err)
	}
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports every gateway Error as ErrSubmissionFailed, and otherwise defers
// to the wrapped error.
func (e *Error) Is(target error) bool {
	return target == ErrSubmissionFailed || errors.Is(e.Err, target)
}

// NewError creates a new Error with the specified operation and underlying error.
func NewError(op string, err error, details string) *Error {
	return &Error{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapError wraps an error as an *Error if it isn't already one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var gwErr *Error
	if errors.As(err, &gwErr) {
		return err // Already wrapped
	}

	return NewError(op, err, details)
}
