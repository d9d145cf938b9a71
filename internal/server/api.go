package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fusionflow/meetlink/internal/instrumentation"
	"github.com/fusionflow/meetlink/internal/logging"
)

// DefaultAPIAddr is the default address for the API server.
const DefaultAPIAddr = ":8080"

// APIServer serves the meeting API and health endpoints.
type APIServer struct {
	httpServer *http.Server
	addr       string
	handlers   *Handlers
	health     *HealthChecker
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// APIServerConfig holds configuration for the API server.
type APIServerConfig struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	Handlers *Handlers
	Health   *HealthChecker

	// Metrics records per-request counters; nil disables them.
	Metrics *instrumentation.Metrics

	Logger *slog.Logger
}

// NewAPIServer creates the API server and wires its routes.
func NewAPIServer(config APIServerConfig) *APIServer {
	if config.Addr == "" {
		config.Addr = DefaultAPIAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &APIServer{
		addr:     config.Addr,
		handlers: config.Handlers,
		health:   config.Health,
		metrics:  config.Metrics,
		logger:   logging.WithService(logger, "api"),
	}
}

// Routes builds the request mux.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/meetings/instant", s.handlers.CreateInstant)
	mux.HandleFunc("POST /api/meetings/scheduled", s.handlers.CreateScheduled)
	mux.HandleFunc("GET /api/meetings", s.handlers.ListMeetings)
	mux.HandleFunc("DELETE /api/meetings", s.handlers.ClearMeetings)

	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}

	return s.withObservability(mux)
}

// withObservability wraps the mux with access logging and HTTP metrics.
func (s *APIServer) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, duration)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", duration))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Start starts the API server and blocks until it stops. Call in a
// goroutine for non-blocking operation.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting api server", slog.String("addr", s.addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the API server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.SetReady(false)
	}
	if s.httpServer != nil {
		s.logger.Info("shutting down api server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the API server.
func (s *APIServer) Addr() string {
	return s.addr
}
