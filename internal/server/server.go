// Package server wires the API handlers into an HTTP server.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/silentspaces/internal/api"
	"github.com/goodtune/silentspaces/internal/checkin"
	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr      string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PollIntervals   api.PollIntervals
	Clock           clock.Clock
}

// Server represents the API HTTP server.
type Server struct {
	config   Config
	store    storage.Store
	checkins *checkin.Service
	server   *http.Server
	router   *mux.Router
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, store storage.Store, service *checkin.Service, logger zerolog.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		config:   cfg,
		store:    store,
		checkins: service,
		router:   mux.NewRouter(),
		logger:   logger.With().Str("component", "server").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// middleware returns the global middleware in registration order. Recovery
// sits inside logging and metrics so recovered panics are logged and counted.
func middleware(logger zerolog.Logger, allowedOrigins []string) []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		RecoveryMiddleware(logger),
		CORSMiddleware(allowedOrigins),
	}
}

// setupRoutes configures all HTTP routes. Routes are registered on the root
// router with full paths: a method mismatch on a subrouter is reported as
// not found rather than method not allowed.
func (s *Server) setupRoutes() {
	s.router.Use(middleware(s.logger, s.config.AllowedOrigins)...)

	healthHandler := api.NewHealthHandler(s.store.Sessions(), s.config.PollIntervals, s.logger)
	s.router.HandleFunc("/health", healthHandler.Get).Methods("GET")

	zoneHandler := api.NewZoneHandler(s.store.Zones(), s.logger)
	s.router.HandleFunc("/api/zones", zoneHandler.List).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/api/zones/{id}", zoneHandler.Get).Methods("GET", "OPTIONS")

	presenceHandler := api.NewPresenceHandler(s.checkins, s.config.Clock, s.logger)
	s.router.HandleFunc("/api/presence", presenceHandler.Get).Methods("GET", "OPTIONS")

	checkinHandler := api.NewCheckInHandler(s.checkins, s.logger)
	s.router.HandleFunc("/api/checkin", checkinHandler.CheckIn).Methods("POST", "OPTIONS")
	s.router.HandleFunc("/api/checkout", checkinHandler.CheckOut).Methods("POST", "OPTIONS")

	sessionHandler := api.NewSessionHandler(s.store.Sessions(), s.logger)
	s.router.HandleFunc("/api/sessions", sessionHandler.ListActive).Methods("GET", "OPTIONS")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server in the background.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated HTTP listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
