// Package metrics provides the Prometheus registry used by the bytecode loaders.
// All metrics are defined in their respective packages (compile, store,
// chunking, retry) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry the /metrics endpoint reads from.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Batch Metrics (pkg/compile):
//   - bytecodes_batches_total{kind, status} (Counter): Batch loads by outcome (ok, load_error, unbatch_error)
//   - bytecodes_batch_size{kind} (Histogram): Flat batch entries per request
//   - bytecodes_batch_duration_seconds{kind} (Histogram): Build + load + unbatch duration
//   - bytecodes_unbatch_errors_total{reason} (Counter): length_mismatch, missing_breadcrumb
//
// Store Metrics (pkg/store):
//   - bytecodes_store_writes_total{backend, result} (Counter): stored vs deduplicated writes
//   - bytecodes_store_errors_total{backend, operation} (Counter): Store operation errors
//
// Chunk Metrics (pkg/chunking):
//   - bytecodes_chunks_total{kind, status} (Counter): Chunk loads by outcome
//   - bytecodes_chunk_duration_seconds{kind} (Histogram): Chunk load duration
//
// Retry Metrics (pkg/retry):
//   - bytecodes_retries_total{kind} (Counter): Retry attempts
//   - bytecodes_retry_backoff_seconds{kind} (Histogram): Backoff durations
//   - bytecodes_retry_exhausted_total{kind} (Counter): Loads that exhausted max attempts
//
// Example Prometheus Queries:
//
//   # Deduplication ratio
//   sum(rate(bytecodes_store_writes_total{result="deduplicated"}[5m])) /
//   sum(rate(bytecodes_store_writes_total[5m]))
//
//   # Batch failure rate
//   sum(rate(bytecodes_batches_total{status!="ok"}[5m])) / sum(rate(bytecodes_batches_total[5m]))
//
//   # P95 batch latency
//   histogram_quantile(0.95, rate(bytecodes_batch_duration_seconds_bucket[5m]))
