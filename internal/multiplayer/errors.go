package multiplayer

import (
	"errors"
	"fmt"
)

// Error kinds returned by coordinator operations. Match with errors.Is.
// Every rejected operation leaves room and registry state unchanged.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrCapacity   = errors.New("room is full")
	ErrState      = errors.New("invalid state")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func statef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrState):
		return "state"
	default:
		return "internal"
	}
}

// ErrorForCode rebuilds a sentinel-wrapped error from a wire code and message.
func ErrorForCode(code, message string) error {
	var kind error
	switch code {
	case "validation":
		kind = ErrValidation
	case "not_found":
		kind = ErrNotFound
	case "capacity":
		kind = ErrCapacity
	case "state":
		kind = ErrState
	default:
		return errors.New(message)
	}
	return &remoteError{kind: kind, message: message}
}

type remoteError struct {
	kind    error
	message string
}

func (e *remoteError) Error() string { return e.message }
func (e *remoteError) Unwrap() error { return e.kind }
