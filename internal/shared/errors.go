package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates request input failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable indicates a collaborator could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
