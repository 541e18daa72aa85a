// Package http serves the engine's operational endpoints: liveness,
// readiness, and Prometheus scrapes. The product API that fronts
// transformation states is a separate service; nothing here exposes
// computed states.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineStatus is what the readiness probe reports about the recompute
// loop. *pipeline.Pipeline satisfies it.
type PipelineStatus interface {
	// CheckReadiness returns nil once the pipeline can serve traffic.
	CheckReadiness(ctx context.Context) error
	// SnapshotsProcessed is the number of snapshots composed and loaded
	// since startup.
	SnapshotsProcessed() uint64
}

const probeTimeout = 2 * time.Second

// OpsServer answers /healthz, /readyz, and /metrics for the engine.
type OpsServer struct {
	srv    *http.Server
	status PipelineStatus
	logger *slog.Logger
}

// NewServer builds the ops server on addr, reporting readiness from status.
func NewServer(addr string, status PipelineStatus, logger *slog.Logger) *OpsServer {
	s := &OpsServer{status: status, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start blocks serving requests. Returns http.ErrServerClosed after a
// graceful Shutdown.
func (s *OpsServer) Start() error {
	s.logger.Info("ops server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeHTTP dispatches straight to the route table, bypassing the listener.
// Lets tests probe the endpoints without binding a port.
func (s *OpsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.Handler.ServeHTTP(w, r)
}

// probeResponse is the JSON body for both probes. SnapshotsProcessed lets
// an operator tell a pipeline that stopped making progress apart from one
// that never started.
type probeResponse struct {
	Status             string `json:"status"`
	SnapshotsProcessed uint64 `json:"snapshots_processed"`
	Error              string `json:"error,omitempty"`
}

func (s *OpsServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, probeResponse{
		Status:             "healthy",
		SnapshotsProcessed: s.status.SnapshotsProcessed(),
	})
}

func (s *OpsServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	processed := s.status.SnapshotsProcessed()
	if err := s.status.CheckReadiness(ctx); err != nil {
		s.respond(w, http.StatusServiceUnavailable, probeResponse{
			Status:             "not ready",
			SnapshotsProcessed: processed,
			Error:              err.Error(),
		})
		return
	}
	s.respond(w, http.StatusOK, probeResponse{
		Status:             "ready",
		SnapshotsProcessed: processed,
	})
}

func (s *OpsServer) respond(w http.ResponseWriter, code int, body probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write probe response failed", "error", err)
	}
}
