package profiles

import "errors"

var (
	// ErrNotFound is returned when no profile matches the lookup
	ErrNotFound = errors.New("profile not found")

	// ErrAlreadyExists is returned when a profile already exists for the subject id
	ErrAlreadyExists = errors.New("profile already exists")

	// ErrHandleTaken is returned when another profile holds the handle
	ErrHandleTaken = errors.New("handle already taken")

	// ErrInvalidInput is returned for input that violates a profile invariant
	ErrInvalidInput = errors.New("invalid input")
)
