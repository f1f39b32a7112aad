// Package apperr provides the attendance error taxonomy with stable, machine-readable codes.
package apperr

import "net/http"

// Code is a machine-readable error code. Values are part of the API contract.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Lifecycle errors
	CodeInvalidTransition Code = "EVENT_INVALID_TRANSITION"
	CodeEventNotOpen      Code = "EVENT_NOT_OPEN"
	CodeEventNotActive    Code = "EVENT_NOT_ACTIVE"

	// Registration errors
	CodeEventFull             Code = "EVENT_FULL"
	CodeDuplicateRegistration Code = "REGISTRATION_DUPLICATE"
	CodeNotRegistered         Code = "REGISTRATION_NOT_FOUND"

	// Session errors
	CodeAlreadyCheckedIn Code = "SESSION_ALREADY_CHECKED_IN"
	CodeNoActiveSession  Code = "SESSION_NOT_ACTIVE"

	// Storage errors
	CodeNotFound               Code = "NOT_FOUND"
	CodeConstraintViolation    Code = "CONSTRAINT_VIOLATION"
	CodePersistenceUnavailable Code = "PERSISTENCE_UNAVAILABLE"

	// Caller errors
	CodeForbidden       Code = "FORBIDDEN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// HTTPStatus maps codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeNotRegistered:
		return http.StatusNotFound
	case CodeDuplicateRegistration,
		CodeAlreadyCheckedIn,
		CodeConstraintViolation:
		return http.StatusConflict
	// state doesn't allow the operation
	case CodeInvalidTransition,
		CodeEventFull,
		CodeEventNotOpen,
		CodeEventNotActive,
		CodeNoActiveSession:
		return http.StatusUnprocessableEntity
	case CodePersistenceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a caller may retry the operation unchanged.
// Business errors are deterministic and never retryable.
func (c Code) Retryable() bool {
	return c == CodePersistenceUnavailable
}
