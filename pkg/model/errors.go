package model

import (
	"errors"
	"fmt"
)

// Common sentinel errors for model construction and lookup.
var (
	ErrDuplicateID       = errors.New("duplicate identifier")
	ErrUnknownBus        = errors.New("references unknown bus")
	ErrUnknownElement    = errors.New("element not found")
	ErrNegativeParam     = errors.New("negative electrical parameter")
	ErrDegenerateLine    = errors.New("resistance and reactance both zero")
	ErrSlackCount        = errors.New("network needs exactly one slack generator")
	ErrLossExceedsRating = errors.New("converter loss exceeds rated power")
)

// ModelError provides structured error information for construction failures.
type ModelError struct {
	Op     string // operation that failed, e.g. "AddLine"
	Entity string // entity type, e.g. "line"
	ID     string // entity identifier
	Cause  error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error { return e.Cause }

// Is reports whether the target matches this error's cause.
func (e *ModelError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func newError(op, entity, id string, cause error) *ModelError {
	return &ModelError{Op: op, Entity: entity, ID: id, Cause: cause}
}
