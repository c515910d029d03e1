// Package monitor serves the live clock state over HTTP.
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lightsync/internal/collector"
	"lightsync/internal/progress"
	"lightsync/internal/sim"
)

var errNotListening = errors.New("monitor: Serve called before Listen")

// Config holds server configuration.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// StateSource provides the latest published clock state.
type StateSource interface {
	Snapshot() sim.Snapshot
}

// MetricsSource computes metrics for the transitions seen so far.
type MetricsSource interface {
	Compute() *collector.Metrics
}

// Server exposes read-only views of a running simulation.
type Server struct {
	cfg     Config
	state   StateSource
	metrics MetricsSource
	router  *mux.Router
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. metrics may be nil, in which case /api/metrics
// responds 404.
func New(cfg Config, state StateSource, metrics MetricsSource, logger *zap.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:     cfg,
		state:   state,
		metrics: metrics,
		router:  mux.NewRouter(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/api/fixtures", s.handleFixtures).Methods(http.MethodGet)
	s.router.HandleFunc("/api/phases/{name}", s.handlePhase).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.HandleFunc("/api/metrics", s.handleMetrics).Methods(http.MethodGet)
	}
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the address the server is listening on, or "" before Run
// has bound its listener.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Listen binds the configured address. Calling it before Serve surfaces
// bind errors before the caller commits to a run.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener
	return nil
}

// Run binds the address if needed and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve serves on the listener bound by Listen until ctx is done, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errNotListening
	}

	httpServer := &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("monitor listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		return fmt.Errorf("monitor server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down monitor: %w", err)
	}
	s.logger.Info("monitor stopped")
	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Compute())
}

func (s *Server) handleFixtures(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	progress.RenderFixtures(&buf, s.state.Snapshot())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type phaseResponse struct {
	Phase    sim.Phase `json:"phase"`
	ColorA   sim.Color `json:"colorA"`
	ColorB   sim.Color `json:"colorB"`
	Next     sim.Phase `json:"next"`
	Active   bool      `json:"active"`
	Duration float64   `json:"durationSeconds"`
}

// handlePhase describes one legal phase by its colors, e.g.
// /api/phases/green-red.
func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p, ok := parsePhaseSlug(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("unknown phase %q", name),
		})
		return
	}

	snap := s.state.Snapshot()
	a, b := p.Colors()
	writeJSON(w, http.StatusOK, phaseResponse{
		Phase:    p,
		ColorA:   a,
		ColorB:   b,
		Next:     p.Next(),
		Active:   !snap.Illegal && snap.Phase == p,
		Duration: sim.PhaseDuration(snap.SimulatedSeconds),
	})
}

// parsePhaseSlug maps "<colorA>-<colorB>" to a legal phase.
func parsePhaseSlug(slug string) (sim.Phase, bool) {
	left, right, found := strings.Cut(slug, "-")
	if !found {
		return 0, false
	}
	var a, b sim.Color
	if a.UnmarshalText([]byte(left)) != nil || b.UnmarshalText([]byte(right)) != nil {
		return 0, false
	}
	return sim.PhaseOf(a, b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
