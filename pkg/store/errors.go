package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// Operation error taxonomy. Every store error is deterministic given the same
// store state and input; there is no transient-failure class.
var (
	// ErrNotFound is returned when an operation references an id that has no
	// live contact.
	ErrNotFound = errors.New("contact not found")

	// ErrInvalidInput is returned when a required field is missing or empty.
	// Field-format rules (email syntax, phone digits) belong to the service
	// layer, not the store.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a phone or email is already owned by a
	// different live contact.
	ErrConflict = errors.New("uniqueness conflict")
)

// ConflictError reports which field collided and with what value. It matches
// ErrConflict under errors.Is.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already in use", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrConflict) hold for ConflictError values.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
