// Package server exposes the tool registry over HTTP so operators and
// external agents can invoke the same operations the shopkeeper uses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adalundhe/shopkeep/core/config"
	"github.com/adalundhe/shopkeep/core/skills"
)

// maxToolBody bounds a tool request body. Tool inputs are small JSON
// objects; anything larger is a caller bug.
const maxToolBody = 1 << 20

// Server dispatches POST /tools/{name} to the skill registry.
type Server struct {
	registry *skills.Registry
	logger   *slog.Logger
	cfg      config.ServerConfig

	// unavailable, when set, short-circuits every tool call with this
	// error token. Used when the instance has no sheet connection yet,
	// so the process still starts and reports why it cannot serve.
	unavailable string
}

// Option adjusts a Server.
type Option func(*Server)

// WithUnavailableToken makes every tool call fail with token.
func WithUnavailableToken(token string) Option {
	return func(s *Server) { s.unavailable = token }
}

// New builds a Server. logger may be nil.
func New(cfg config.ServerConfig, registry *skills.Registry, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: registry,
		logger:   logger,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/tools", s.handleListTools)
	mux.HandleFunc("/tools/", s.handleInvokeTool)
	mux.HandleFunc("/stats", s.handleStats)
	return s.withRequestLog(mux)
}

// Start serves until ctx is cancelled, then drains within the configured
// shutdown grace period.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.RequestTimeoutDuration(),
		WriteTimeout: s.cfg.RequestTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("tool server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("tool server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.ToolDefinitions()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Stats())
}

func (s *Server) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/tools/")
	if name == "" || strings.Contains(name, "/") {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown tool"})
		return
	}

	if s.unavailable != "" {
		writeJSON(w, http.StatusOK, map[string]any{"error": s.unavailable})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxToolBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "body must be JSON"})
		return
	}

	if s.registry.Get(name) == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown tool: " + name})
		return
	}

	result := s.registry.Invoke(r.Context(), name, body)
	if !result.Success {
		// Business failures ride in the payload with a 200; the token
		// vocabulary is the contract, not HTTP status codes.
		writeJSON(w, http.StatusOK, map[string]any{"error": result.Error})
		return
	}
	writeJSON(w, http.StatusOK, result.Data)
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Default().Warn("write response", "error", err)
	}
}
