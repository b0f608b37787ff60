package retry

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/Sternrassler/compile-bytecodes/pkg/store"
)

// Common errors returned by the retrying loader.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during backoff.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of load errors.
type ErrorClass string

const (
	// ErrorClassInput represents requests the backend rejected as invalid.
	ErrorClassInput ErrorClass = "input"

	// ErrorClassContract represents responses that broke the positional contract.
	ErrorClassContract ErrorClass = "contract"

	// ErrorClassCancelled represents context cancellation or deadline expiry.
	ErrorClassCancelled ErrorClass = "cancelled"

	// ErrorClassBackend represents any other backend failure.
	ErrorClassBackend ErrorClass = "backend"
)

// LoadError is a failed load with its classification.
type LoadError struct {
	Kind       string
	ErrorClass ErrorClass
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s error after %d attempt(s): %v",
		e.Kind, e.ErrorClass, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Classify returns the class of a load error.
func Classify(err error) ErrorClass {
	var mismatch *batch.LengthMismatchError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassCancelled
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrUnsupportedKind):
		return ErrorClassInput
	case errors.As(err, &mismatch):
		return ErrorClassContract
	default:
		return ErrorClassBackend
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassBackend:
		// Transient backend failures (network, redis restarts) are retried
		return true
	default:
		// Input and contract errors fail identically on every attempt
		return false
	}
}
