package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulseui/pulse/pkg/pulse"
)

// Server serves the inspector endpoints:
//
//	GET /healthz  liveness check
//	GET /stats    engine counters as JSON
//	GET /ws       live event stream over WebSocket
//	GET /metrics  Prometheus exposition
type Server struct {
	logger *slog.Logger
	hub    *Hub
	probe  *probe
	router chi.Router
	http   *http.Server
}

// ServerOption configures the inspector server.
type ServerOption func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer builds an inspector server. Call Attach to start observing the
// engine, then serve Handler (or use ListenAndServe).
func NewServer(opts ...ServerOption) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.hub = NewHub(s.logger)
	s.probe = newProbe(s.hub)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/ws", s.hub.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Attach installs the inspector as the engine's probe.
func (s *Server) Attach() {
	pulse.SetProbe(s.probe)
}

// Probe returns the inspector's probe for composing with others via
// pulse.CombineProbes.
func (s *Server) Probe() pulse.Probe {
	return s.probe
}

// Detach removes the inspector probe and disconnects all clients.
func (s *Server) Detach() {
	pulse.SetProbe(nil)
	s.hub.Close()
}

// Handler returns the inspector's HTTP handler for mounting into an
// existing router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the current engine counters.
func (s *Server) Stats() Stats {
	return s.probe.stats()
}

// ListenAndServe starts an HTTP server on addr and blocks until ctx is
// cancelled or the server fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Shutdown stops the HTTP server and disconnects inspector clients.
func (s *Server) Shutdown() error {
	s.Detach()
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.probe.stats()); err != nil {
		s.logger.Error("stats encode failed", "error", err)
	}
}
