package chunking

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Prometheus metrics for chunked loads.
var (
	chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bytecodes_chunks_total",
		Help: "Total chunk loads by resource kind and status",
	}, []string{"kind", "status"})

	chunkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bytecodes_chunk_duration_seconds",
		Help:    "Chunk load duration in seconds by resource kind",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"kind"})
)

// Config holds chunked loader configuration
type Config struct {
	// ChunkSize is the maximum number of inputs per backend request
	ChunkSize int
	// MaxConcurrency is the maximum number of parallel chunk loads
	MaxConcurrency int
	// Timeout per chunk load
	Timeout time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		ChunkSize:      500,
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// Loader splits requests into chunks and loads them in parallel
type Loader[I, R any] struct {
	next   batch.Loader[I, R]
	config Config
}

// NewLoader creates a new chunked loader around next
func NewLoader[I, R any](next batch.Loader[I, R], config Config) *Loader[I, R] {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 500
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Loader[I, R]{
		next:   next,
		config: config,
	}
}

// chunk is a half-open range of request positions
type chunk struct {
	start, end int
}

// split partitions n positions into consecutive chunks of at most size
func split(n, size int) []chunk {
	chunks := make([]chunk, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, chunk{start: start, end: end})
	}
	return chunks
}

// Load implements batch.Loader
func (l *Loader[I, R]) Load(ctx context.Context, req batch.Request[I]) ([]R, error) {
	start := time.Now()

	// Single chunk optimization
	if len(req.Inputs) <= l.config.ChunkSize {
		return l.loadChunk(ctx, req.Kind, req.Inputs)
	}

	chunks := split(len(req.Inputs), l.config.ChunkSize)
	log.Debug().
		Str("kind", req.Kind).
		Int("inputs", len(req.Inputs)).
		Int("chunks", len(chunks)).
		Msg("Starting chunked load")

	results := make([]R, len(req.Inputs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.MaxConcurrency)

	for i, c := range chunks {
		g.Go(func() error {
			out, err := l.loadChunk(gCtx, req.Kind, req.Inputs[c.start:c.end])
			if err != nil {
				log.Warn().
					Err(err).
					Str("kind", req.Kind).
					Int("chunk", i).
					Int("offset", c.start).
					Msg("Chunk load failed")
				return fmt.Errorf("chunk %d (offset %d): %w", i, c.start, err)
			}
			// Chunks write disjoint ranges
			copy(results[c.start:c.end], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("kind", req.Kind).
		Int("inputs", len(req.Inputs)).
		Int("chunks", len(chunks)).
		Dur("duration", time.Since(start)).
		Msg("Chunked load complete")

	return results, nil
}

// loadChunk loads one chunk with the per-chunk timeout and checks its length
func (l *Loader[I, R]) loadChunk(ctx context.Context, kind string, inputs []I) ([]R, error) {
	chunkCtx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	start := time.Now()
	out, err := l.next.Load(chunkCtx, batch.Request[I]{Kind: kind, Inputs: inputs})
	chunkDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		chunksTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	if len(out) != len(inputs) {
		chunksTotal.WithLabelValues(kind, "length_mismatch").Inc()
		return nil, &batch.LengthMismatchError{Kind: kind, Expected: len(inputs), Got: len(out)}
	}

	chunksTotal.WithLabelValues(kind, "ok").Inc()
	return out, nil
}
