// Package services defines the business logic for sessions, group chat and
// essay documents. This file centralizes the service-level error taxonomy so
// that service methods return consistent values and handlers can translate
// them into HTTP status codes.
//
// Validation and authorization failures are returned as values, never
// panics. Storage failures are wrapped in *PersistenceError: callers log the
// wrapped detail and show users only a generic retry message.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-classroom-backend/internal/repo"
	"github.com/tbourn/go-classroom-backend/internal/utils"
)

var (
	// ErrUnauthorized indicates that no user could be resolved from the
	// session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is the parent of every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that the referenced document or group does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the session user is not a member of the
	// group being accessed.
	ErrForbidden = errors.New("not a member of this group")

	// ErrInvalidCredentials is returned by Login. It does not say which of
	// the id or the name was wrong.
	ErrInvalidCredentials = errors.New("invalid student id or name")

	// ErrUpstreamUnavailable marks assistant completion failures. It never
	// leaves the assistant path; the reply degrades instead.
	ErrUpstreamUnavailable = errors.New("assistant upstream unavailable")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError wraps a storage failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ParseID coerces a raw identifier to a positive integer, reporting field in
// the *ValidationError on failure.
func ParseID(field, raw string) (uint, error) {
	id, err := utils.ParseID(raw)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return id, nil
}

// storageErr passes taxonomy errors through and wraps everything else.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden):
		return err
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
