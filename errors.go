package fragments

import "errors"

var (
	// ErrNotFound is returned when a fragment or its data does not exist for the owner
	ErrNotFound = errors.New("not found")
	// ErrInternal marks metadata and payload left out of step by a partial
	// failure on split backends
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when fragment construction or data validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedConversion is returned when a conversion target is not reachable
	// from the fragment's type. It is a client-input condition, not a failure.
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
)
