// Package store provides content-addressed bytecode stores that execute
// "bytecodes" batch requests.
//
// Each bytecode is identified by the keccak256 hash of its canonical JSON
// encoding, so loading the same bytecode twice yields the same IDObject and
// stores it once.
//
// # Basic Usage
//
//	// In-memory (tests, one-shot CLI runs)
//	mem := store.NewMemory()
//
//	// Redis-backed
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	rs := store.NewRedis(redisClient, "bytecodes")
//
//	out, err := compile.LoadBytecodes(ctx, rs, compilations)
//
// Both stores return exactly one IDObject per request input, in request
// order. A nil input rejects the whole request with ErrInvalidInput; nothing
// is stored in that case.
//
// # Metrics
//
//   - bytecodes_store_writes_total{backend,result} - stored vs deduplicated writes
//   - bytecodes_store_errors_total{backend,operation} - store operation errors
package store
