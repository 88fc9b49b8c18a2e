// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/sway/internal/domain/model"
	"github.com/okian/sway/pkg/metrics"
)

// Evaluator judges a raw request body. It never fails.
type Evaluator interface {
	Evaluate(ctx context.Context, raw []byte) model.Result
}

// InfoProvider reports what the health endpoint shows.
type InfoProvider interface {
	Info() model.Info
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Evaluator
	InfoProvider
	StatsProvider
}

// Server wires HTTP routes for the evaluation API.
type Server struct {
	evaluateHandler *EvaluateHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	return &Server{
		evaluateHandler: NewEvaluateHandler(deps, opts...),
		healthHandler:   NewHealthHandler(deps),
		statsHandler:    NewStatsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic(ErrNilMux)
	}
	// "/{$}" matches only the root; other methods on it get 405 from the mux.
	mux.HandleFunc("POST /{$}", RequestID(MetricsMiddleware(s.evaluateHandler.HandleEvaluate, "evaluate")))
	mux.HandleFunc("GET /healthz", RequestID(MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")))
	mux.HandleFunc("GET /stats", RequestID(MetricsMiddleware(s.statsHandler.HandleStats, "stats")))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
