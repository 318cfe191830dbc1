package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// HTTP metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silentspaces_http_requests_total",
			Help: "Total number of API requests processed",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "silentspaces_http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	// Check-in metrics
	CheckInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silentspaces_checkins_total",
			Help: "Total successful check-ins",
		},
		[]string{"zone"},
	)

	CheckOutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "silentspaces_checkouts_total",
			Help: "Total check-out requests",
		},
	)

	SessionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silentspaces_sessions_closed_total",
			Help: "Total sessions deactivated",
		},
		[]string{"reason"},
	)

	UsersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "silentspaces_users_created_total",
			Help: "Total users created on first check-in",
		},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "silentspaces_validation_failures_total",
			Help: "Total rejected check-in and check-out requests",
		},
		[]string{"field"},
	)

	// User cache metrics
	UserCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "silentspaces_user_cache_hits_total",
			Help: "Total user lookups served from the cache",
		},
	)

	UserCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "silentspaces_user_cache_misses_total",
			Help: "Total user lookups that reached the storage backend",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		CheckInsTotal,
		CheckOutsTotal,
		SessionsClosedTotal,
		UsersCreatedTotal,
		ValidationFailuresTotal,
		UserCacheHits,
		UserCacheMisses,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server serving the given gatherer
func NewServer(addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler returns the underlying HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			// Use systemd socket-activated listener
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
