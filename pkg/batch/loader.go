package batch

import (
	"context"
	"fmt"
)

// Request is a single bulk-load request: a resource kind and the ordered
// inputs to load.
type Request[I any] struct {
	Kind   string
	Inputs []I
}

// Loader executes bulk-load requests.
// Implementations MUST return exactly one result per input, in input order.
type Loader[I, R any] interface {
	Load(ctx context.Context, req Request[I]) ([]R, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc[I, R any] func(ctx context.Context, req Request[I]) ([]R, error)

// Load calls f(ctx, req).
func (f LoaderFunc[I, R]) Load(ctx context.Context, req Request[I]) ([]R, error) {
	return f(ctx, req)
}

// Load submits the whole batch to loader as one request of the given kind
// and checks that the response is positionally aligned with it.
func Load[I, C, R any](ctx context.Context, loader Loader[I, R], kind string, b *Batch[I, C]) ([]R, error) {
	results, err := loader.Load(ctx, Request[I]{Kind: kind, Inputs: b.Inputs})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}

	if len(results) != b.Len() {
		return nil, &LengthMismatchError{Kind: kind, Expected: b.Len(), Got: len(results)}
	}

	return results, nil
}
