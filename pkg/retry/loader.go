// Package retry provides a batch loader that retries transient backend
// failures with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bytecodes_retries_total",
		Help: "Total number of retry attempts by resource kind",
	}, []string{"kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bytecodes_retry_backoff_seconds",
		Help:    "Backoff duration for retries by resource kind",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bytecodes_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by resource kind",
	}, []string{"kind"})
)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Loader retries failed loads of the wrapped loader.
// Every attempt sends the full request; results are never merged across attempts.
type Loader[I, R any] struct {
	next   batch.Loader[I, R]
	config Config
}

// NewLoader wraps next with retry logic.
func NewLoader[I, R any](next batch.Loader[I, R], config Config) *Loader[I, R] {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}

	return &Loader[I, R]{
		next:   next,
		config: config,
	}
}

// Load implements batch.Loader.
func (l *Loader[I, R]) Load(ctx context.Context, req batch.Request[I]) ([]R, error) {
	var results []R
	err := l.retryWithBackoff(ctx, req.Kind, func() error {
		out, err := l.next.Load(ctx, req)
		if err != nil {
			return err
		}
		results = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// retryWithBackoff executes fn with exponential backoff retry logic.
// It respects context cancellation and adds jitter to prevent thundering herd.
func (l *Loader[I, R]) retryWithBackoff(ctx context.Context, kind string, fn func() error) error {
	var lastErr error
	backoff := l.config.InitialBackoff

	for attempt := 1; attempt <= l.config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("kind", kind).
					Int("attempt", attempt).
					Msg("Load succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errorClass := Classify(err)

		if !shouldRetry(errorClass) {
			return &LoadError{Kind: kind, ErrorClass: errorClass, Attempts: attempt, Err: err}
		}

		// If this was the last attempt, don't wait
		if attempt >= l.config.MaxAttempts {
			break
		}

		retriesTotal.WithLabelValues(kind).Inc()

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(kind).Observe(jitter.Seconds())

		log.Debug().
			Err(err).
			Str("kind", kind).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying load after backoff")

		select {
		case <-ctx.Done():
			log.Warn().
				Str("kind", kind).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * l.config.BackoffMultiplier)
		if backoff > l.config.MaxBackoff {
			backoff = l.config.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(kind).Inc()
	log.Warn().
		Err(lastErr).
		Str("kind", kind).
		Int("max_attempts", l.config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, l.config.MaxAttempts, lastErr)
}
