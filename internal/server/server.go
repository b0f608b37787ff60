// Package server exposes bytecode batch loading over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"github.com/Sternrassler/compile-bytecodes/pkg/logging"
	"github.com/Sternrassler/compile-bytecodes/pkg/metrics"
	"github.com/Sternrassler/compile-bytecodes/pkg/retry"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// maxBodyBytes bounds the compilations payload.
const maxBodyBytes = 64 << 20

// Server serves the bytecodes API.
type Server struct {
	loader  compile.Loader
	redis   *redis.Client
	timeout time.Duration
	maxBody int64
}

// New creates a server around loader. redisClient may be nil when the
// backend does not use Redis; /ready then always reports OK.
func New(loader compile.Loader, redisClient *redis.Client, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Server{
		loader:  loader,
		redis:   redisClient,
		timeout: timeout,
		maxBody: maxBodyBytes,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /compilations/bytecodes", s.loadBytecodesHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// loadBytecodesHandler accepts a JSON array of compilations and responds
// with the same compilations, each contract carrying db.createBytecode and
// db.callBytecode.
func (s *Server) loadBytecodesHandler(w http.ResponseWriter, r *http.Request) {
	logger := logging.NewLogger("server").With().
		Str("request_id", ulid.Make().String()).
		Logger()
	ctx := logging.WithContext(r.Context(), logger)

	var compilations []compile.Compilation
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, fmt.Sprintf("read body: %v", err), status)
		return
	}
	if err := json.Unmarshal(body, &compilations); err != nil {
		http.Error(w, fmt.Sprintf("invalid compilations: %v", err), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := compile.LoadBytecodes(ctx, s.loader, compilations)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Int("compilations", len(compilations)).Msg("Bytecodes load failed")
		http.Error(w, fmt.Sprintf("load bytecodes: %v", err), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Failed to write response")
	}
}

// statusClientClosedRequest is logged when the client went away before the
// load finished. It is never seen by the client.
const statusClientClosedRequest = 499

// statusFor maps a load error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case retry.Classify(err) == retry.ErrorClassInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
