// Package batch provides a generic positional batching core.
//
// Nested work items are pushed into a flat Batch, each with a breadcrumb
// recording where it came from. The flat inputs are submitted to a Loader
// in a single request, and the ordered results are scattered back by
// breadcrumb.
//
// The only coupling between a batch and its loader is position: a loader
// MUST return exactly one result per input, in request order. Load checks
// the length and fails with *LengthMismatchError otherwise.
//
// Example usage:
//
//	b := batch.New[Input, Crumb]()
//	for i, item := range items {
//		b.Push(item.Input, Crumb{Index: i})
//	}
//
//	results, err := batch.Load(ctx, loader, "things", b)
//	if err != nil {
//		return err
//	}
//
//	err = batch.Scatter(b, results, func(c Crumb, r Result) error {
//		out[c.Index] = r
//		return nil
//	})
package batch
