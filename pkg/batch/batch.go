package batch

import (
	"fmt"
)

// Batch is a flat, ordered sequence of inputs plus the breadcrumb recorded
// for each input at its flat index.
type Batch[I, C any] struct {
	// Inputs is submitted to the loader as-is
	Inputs []I

	// Breadcrumbs maps flat index -> origin of the input at that index
	Breadcrumbs map[int]C
}

// New creates an empty batch.
func New[I, C any]() *Batch[I, C] {
	return &Batch[I, C]{
		Breadcrumbs: make(map[int]C),
	}
}

// Push appends input and records crumb at the index it was pushed to.
func (b *Batch[I, C]) Push(input I, crumb C) {
	b.Breadcrumbs[len(b.Inputs)] = crumb
	b.Inputs = append(b.Inputs, input)
}

// Len returns the number of inputs in the batch.
func (b *Batch[I, C]) Len() int {
	return len(b.Inputs)
}

// Scatter walks results in order and hands each one to place together with
// the breadcrumb recorded at the same index.
//
// results must have exactly b.Len() entries. A missing breadcrumb means the
// batch was built inconsistently and is reported as ErrMissingBreadcrumb
// rather than silently skipped.
func Scatter[I, C, R any](b *Batch[I, C], results []R, place func(crumb C, result R) error) error {
	if len(results) != b.Len() {
		return &LengthMismatchError{Expected: b.Len(), Got: len(results)}
	}

	for i, result := range results {
		crumb, ok := b.Breadcrumbs[i]
		if !ok {
			return fmt.Errorf("%w: index %d", ErrMissingBreadcrumb, i)
		}
		if err := place(crumb, result); err != nil {
			return fmt.Errorf("place result %d: %w", i, err)
		}
	}

	return nil
}
