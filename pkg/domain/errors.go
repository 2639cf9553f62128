package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the concrete taxonomy below.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrIntegrity  = errors.New("integrity violation")
)

// ValidationError reports malformed or missing input. The mutation did not happen.
type ValidationError struct {
	Entity EntityType
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned when an id is absent from its collection.
type NotFoundError struct {
	Entity EntityType
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IntegrityViolation is returned when a guard precondition fails. Reason is
// meant to be shown to the operator as is.
type IntegrityViolation struct {
	Entity EntityType
	ID     int64
	Reason string
}

func (e IntegrityViolation) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}

// Is matches ErrIntegrity.
func (e IntegrityViolation) Is(target error) bool { return target == ErrIntegrity }

// Is lets blocking rule results surface as integrity violations.
func (e RuleViolationError) Is(target error) bool { return target == ErrIntegrity }

func invalid(entity EntityType, field, reason string) error {
	return ValidationError{Entity: entity, Field: field, Reason: reason}
}
