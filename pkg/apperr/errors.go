package apperr

import "errors"

// Error is the domain error type carrying a stable code.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message, safe to show to callers
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons. Matching is by code, so any *Error
// with the same code satisfies errors.Is(err, ErrEventFull).
var (
	ErrInvalidTransition      = New(CodeInvalidTransition, "illegal event status transition")
	ErrEventNotOpen           = New(CodeEventNotOpen, "event is not open for registration")
	ErrEventNotActive         = New(CodeEventNotActive, "event is not in progress")
	ErrEventFull              = New(CodeEventFull, "event is full")
	ErrDuplicateRegistration  = New(CodeDuplicateRegistration, "already registered for this event")
	ErrNotRegistered          = New(CodeNotRegistered, "not registered for this event")
	ErrAlreadyCheckedIn       = New(CodeAlreadyCheckedIn, "already checked in")
	ErrNoActiveSession        = New(CodeNoActiveSession, "no active check-in session")
	ErrNotFound               = New(CodeNotFound, "not found")
	ErrConstraintViolation    = New(CodeConstraintViolation, "constraint violation")
	ErrPersistenceUnavailable = New(CodePersistenceUnavailable, "storage temporarily unavailable")
	ErrForbidden              = New(CodeForbidden, "not authorized for this organization")
	ErrInvalidArgument        = New(CodeInvalidArgument, "invalid argument")
)

// CodeOf extracts the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// MessageOf returns the caller-safe message for err. Errors without a code
// yield a generic message so internal details never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}
