// Package chunking provides a batch loader that splits large requests into
// chunks and loads them in parallel.
//
// Backends often cap the size of a single bulk request. The chunked loader
// keeps the positional contract of batch.Loader intact: results from every
// chunk are written back at the chunk's offset, so the caller receives one
// result per input in request order regardless of completion order.
//
// Example usage:
//
//	config := chunking.DefaultConfig()
//	loader := chunking.NewLoader[*compile.BytecodeInput, compile.IDObject](redisStore, config)
//	out, err := compile.LoadBytecodes(ctx, loader, compilations)
//
// The chunked loader:
//   - Sends small requests through unchanged (single chunk)
//   - Runs at most MaxConcurrency chunk loads at once
//   - Applies Timeout to each chunk load
//   - Fails the whole request if any chunk fails or returns the wrong
//     number of results (no partial data)
package chunking
