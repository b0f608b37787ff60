package store

import "errors"

var (
	// ErrNotFound indicates the requested entry does not exist
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidEntry indicates a stored entry is corrupted
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidInput indicates a request input that cannot be stored
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedKind indicates a request for a resource kind the store does not hold
	ErrUnsupportedKind = errors.New("unsupported resource kind")
)
