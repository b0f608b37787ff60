package compile

import (
	"errors"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for batch orchestration.
var (
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bytecodes_batches_total",
		Help: "Total batch loads by resource kind and outcome",
	}, []string{"kind", "status"}) // "ok", "load_error", "unbatch_error"

	batchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bytecodes_batch_size",
		Help:    "Number of entries per batch request",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"kind"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bytecodes_batch_duration_seconds",
		Help:    "Duration of a full batch round trip (build, load, unbatch)",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"kind"})

	unbatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bytecodes_unbatch_errors_total",
		Help: "Total unbatch failures by reason",
	}, []string{"reason"}) // "length_mismatch", "missing_breadcrumb", "other"
)

// errorReason classifies an unbatch error for metrics.
func errorReason(err error) string {
	var mismatch *batch.LengthMismatchError
	switch {
	case errors.As(err, &mismatch):
		return "length_mismatch"
	case errors.Is(err, batch.ErrMissingBreadcrumb):
		return "missing_breadcrumb"
	default:
		return "other"
	}
}
