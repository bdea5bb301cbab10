package fcl

import (
	"github.com/pkg/errors"
)

// Error is a failure of one authorization attempt. Code is stable and is what
// callers match on with errors.Is; Cause carries the underlying failure.
type Error struct {
	Code  string
	Cause error
}

var (
	ErrGeneric            = &Error{Code: "error.fcl.generic"}
	ErrInvalidURL         = &Error{Code: "error.fcl.invalid-url"}
	ErrInvalidSession     = &Error{Code: "error.fcl.invalid-session"}
	ErrDeclined           = &Error{Code: "error.fcl.declined"}
	ErrInvalidResponse    = &Error{Code: "error.fcl.invalid-response"}
	ErrDecodeFailure      = &Error{Code: "error.fcl.decode-failure"}
	ErrUnauthenticated    = &Error{Code: "error.fcl.unauthenticated"}
	ErrMissingEndpoint    = &Error{Code: "error.fcl.missing-endpoint"}
	ErrNetwork            = &Error{Code: "error.fcl.network"}
	ErrMissingProposer    = &Error{Code: "error.fcl.missing-proposer"}
	ErrInvalidInteraction = &Error{Code: "error.fcl.invalid-interaction"}
)

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Code
	}
	return e.Code + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap attaches cause to the error kind.
func Wrap(kind *Error, cause error) error {
	if cause == nil {
		return kind
	}
	return &Error{Code: kind.Code, Cause: errors.WithStack(cause)}
}

// Wrapf attaches a formatted message to the error kind.
func Wrapf(kind *Error, format string, args ...any) error {
	return &Error{Code: kind.Code, Cause: errors.Errorf(format, args...)}
}

// Code returns the fcl error code of err, or ErrGeneric's code.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrGeneric.Code
}
