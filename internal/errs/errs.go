// Package errs defines the error kinds shared across services. Callers wrap
// them with fmt.Errorf("...: %w", kind) and the HTTP layer maps each kind to
// a status code with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. No state change.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated marks a request with no resolvable actor identity.
	// Never downgraded to an observer-level allow.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied marks an actor lacking the required role or
	// ownership. Distinct from ErrNotFound so clients can tell "doesn't
	// exist" from "not allowed".
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict marks a request that contradicts current state, e.g. a
	// move with a stale source column or an already-processed invitation.
	ErrConflict = errors.New("conflict")
	// ErrExternalService marks a failed call to an external collaborator.
	// Never surfaced to the end user; degrades to a local fallback.
	ErrExternalService = errors.New("external service failure")
	// ErrTransaction marks a persistence failure inside a multi-row
	// operation. The whole operation is rolled back; retryable by the caller.
	ErrTransaction = errors.New("transaction failed")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Deniedf wraps ErrPermissionDenied with a formatted detail message.
func Deniedf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrPermissionDenied)...)
}

// Conflictf wraps ErrConflict with a formatted detail message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}
