// Package translate orchestrates batched, retried translation of segments
// against an external, rate-limited translation service, per target language.
package translate

import (
	"errors"
	"fmt"
)

// ErrorKind classifies external translator failures into the retry policy's
// transient and permanent classes.
type ErrorKind string

const (
	// ErrRateLimited is the service's throttling response. Transient.
	ErrRateLimited ErrorKind = "RATE_LIMITED"
	// ErrTimeout covers call deadlines and network timeouts. Transient.
	ErrTimeout ErrorKind = "TIMEOUT"
	// ErrService covers 5xx-style service faults. Transient.
	ErrService ErrorKind = "SERVICE_ERROR"
	// ErrAuth covers authentication and authorization failures. Permanent.
	ErrAuth ErrorKind = "AUTH_FAILED"
	// ErrBadRequest covers malformed requests. Permanent.
	ErrBadRequest ErrorKind = "BAD_REQUEST"
)

// ServiceError is the typed failure returned by a Translator capability.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure is transient.
func (e *ServiceError) Retryable() bool {
	switch e.Kind {
	case ErrRateLimited, ErrTimeout, ErrService:
		return true
	default:
		return false
	}
}

// NewServiceError creates a ServiceError.
func NewServiceError(kind ErrorKind, message string, cause error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Cause: cause}
}

// IsRetryable reports whether an error should trigger a retry. Typed service
// errors answer for themselves; anything untyped is treated as permanent so
// an unknown failure mode never loops.
func IsRetryable(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return false
}
