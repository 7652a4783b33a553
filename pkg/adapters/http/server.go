// Package http exposes an engine over HTTP: a websocket endpoint carrying
// the envelope protocol plus health, info, toast and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/adapters/websocket"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is what the server needs from an engine implementation.
type Engine interface {
	Serve(ctx context.Context, t ports.Transport) error
	Sessions() int
	Toast(ctx context.Context, toast protocol.Toast) error
}

// Server routes HTTP requests to an Engine.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	origins  []string
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithGatherer sets the registry served on /metrics. The default is the
// prometheus default gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithOriginPatterns allows websocket upgrades from other origins.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.origins = patterns
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:   engine,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/ws", s.ServeWS)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/toast", s.PostToast)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeWS upgrades the request and serves one engine session over it.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	t, err := websocket.Accept(w, r, s.origins...)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer t.Close()
	s.logger.Info("session opened", "remote", r.RemoteAddr)
	if err := s.engine.Serve(r.Context(), t); err != nil {
		s.logger.Info("session closed", "remote", r.RemoteAddr, "error", err)
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.engine.Sessions()})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"app": "warp-dev-engine", "version": s.version})
}

// PostToast handles POST /toast by pushing the body to every session.
func (s *Server) PostToast(w http.ResponseWriter, r *http.Request) {
	var toast protocol.Toast
	if err := json.NewDecoder(r.Body).Decode(&toast); err != nil {
		http.Error(w, "invalid toast body", http.StatusBadRequest)
		s.logger.Warn("PostToast: invalid body", "error", err)
		return
	}
	if toast.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if err := s.engine.Toast(r.Context(), toast); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
