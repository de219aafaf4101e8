package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// config holds internal HTTP server configuration
type config struct {
	addr      string
	metrics   http.Handler
	runStatus *model.RunStatus
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithMetrics serves handler on /metrics
func WithMetrics(handler http.Handler) Option {
	return func(c *config) {
		c.metrics = handler
	}
}

// WithRunStatus adds the run being executed to the health response
func WithRunStatus(status *model.RunStatus) Option {
	return func(c *config) {
		c.runStatus = status
	}
}

// Server represents the HTTP server exposing health and metrics while a run is in flight
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, opts ...Option) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:9090",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", healthHandler(cfg.runStatus))
	if cfg.metrics != nil {
		router.Handle("/metrics", cfg.metrics)
	}
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, goerr.New("not found", goerr.V("path", r.URL.Path)), http.StatusNotFound)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}

// ShutdownWithTimeout stops the server, waiting at most timeout for open requests
func (s *Server) ShutdownWithTimeout(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return goerr.Wrap(err, "failed to shutdown metrics server")
	}
	return nil
}
