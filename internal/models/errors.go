package models

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a referenced resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrValidation is returned on malformed or contradictory input
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an operation would violate an invariant
	ErrConflict = errors.New("operation conflicts with current state")

	// ErrConfirmRequired is returned when a publish is attempted without
	// the explicit confirmation flag
	ErrConfirmRequired = errors.New("publish confirmation required")

	// ErrCollaborator is returned when an external collaborator call
	// failed or timed out on a critical path
	ErrCollaborator = errors.New("external collaborator failure")
)
