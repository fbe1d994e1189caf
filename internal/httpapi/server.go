// Package httpapi serves the read-only intelligence API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"volintel/internal/engine"
)

// RequestRecorder feeds the request duration histogram. Implemented
// by the metrics package; a nil recorder is replaced with a no-op.
type RequestRecorder interface {
	HTTPRequest(route string, status int, seconds float64)
}

type nopRequestRecorder struct{}

func (nopRequestRecorder) HTTPRequest(string, int, float64) {}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// Server is the HTTP front of the engine. All endpoints are read
// only; every write path in the process belongs to other components.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	recorder RequestRecorder
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer wires routes, middleware and the metrics endpoint. The
// gatherer may be nil, which drops the /metrics route.
func NewServer(cfg ServerConfig, eng *engine.Engine, recorder RequestRecorder, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if recorder == nil {
		recorder = nopRequestRecorder{}
	}

	s := &Server{
		router:   mux.NewRouter(),
		handlers: NewHandlers(eng, logger),
		recorder: recorder,
		logger:   logger.With().Str("component", "http_server").Logger(),
		config:   cfg,
	}
	s.setupRoutes(gatherer)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	// Middleware for all routes
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.observeMiddleware)
	s.router.Use(s.timeoutMiddleware)

	// API routes (JSON only)
	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/intel/{pair}", s.handlers.Intelligence).Methods("GET")
	api.HandleFunc("/health", s.handlers.Health).Methods("GET")

	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	// 404 handler
	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
