// Package api provides the HTTP API for the scheduling engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *SchedulingHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Metrics defaults to a no-op collector when unset.
	Metrics observability.Metrics
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handler *SchedulingHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCorrelationID(withRequestLogging(withActor(s.mux), logger, cfg.Metrics)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Scheduling API v1
	s.mux.HandleFunc("POST /api/v1/availability/check", s.handler.CheckAvailability)
	s.mux.HandleFunc("POST /api/v1/commitments", s.handler.CreateCommitment)
	s.mux.HandleFunc("GET /api/v1/commitments", s.handler.ListCommitments)
	s.mux.HandleFunc("GET /api/v1/commitments/{commitmentID}", s.handler.GetCommitment)
	s.mux.HandleFunc("GET /api/v1/commitments/{commitmentID}/history", s.handler.ListHistory)
	s.mux.HandleFunc("POST /api/v1/commitments/{commitmentID}/reschedule", s.handler.RescheduleCommitment)
	s.mux.HandleFunc("POST /api/v1/commitments/{commitmentID}/cancel", s.handler.CancelCommitment)
	s.mux.HandleFunc("POST /api/v1/commitments/{commitmentID}/confirm", s.handler.ConfirmCommitment)

	// Blocks
	s.mux.HandleFunc("POST /api/v1/blocks", s.handler.AddBlock)
	s.mux.HandleFunc("DELETE /api/v1/blocks/{blockID}", s.handler.RemoveBlock)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting scheduling API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down scheduling API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
