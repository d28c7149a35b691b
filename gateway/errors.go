package gateway

import "errors"

var (
	// ErrPrimaryRequired is returned when a primary generator is not provided.
	ErrPrimaryRequired = errors.New("primary generator required")

	// ErrSecondaryRequired is returned when a secondary generator is not provided.
	ErrSecondaryRequired = errors.New("secondary generator required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
