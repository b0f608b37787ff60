package batch

import (
	"errors"
	"fmt"
)

// ErrMissingBreadcrumb indicates a result index with no recorded origin.
var ErrMissingBreadcrumb = errors.New("missing breadcrumb")

// LengthMismatchError is returned when a loader's result sequence does not
// have one entry per batch input.
type LengthMismatchError struct {
	Kind     string
	Expected int
	Got      int
}

// Error implements the error interface.
func (e *LengthMismatchError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: result length mismatch: expected %d, got %d",
			e.Kind, e.Expected, e.Got)
	}
	return fmt.Sprintf("result length mismatch: expected %d, got %d", e.Expected, e.Got)
}
