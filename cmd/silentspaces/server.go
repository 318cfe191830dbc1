package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/silentspaces/internal/api"
	"github.com/goodtune/silentspaces/internal/checkin"
	"github.com/goodtune/silentspaces/internal/clock"
	"github.com/goodtune/silentspaces/internal/config"
	"github.com/goodtune/silentspaces/internal/metrics"
	"github.com/goodtune/silentspaces/internal/server"
	"github.com/goodtune/silentspaces/internal/storage"
	"github.com/goodtune/silentspaces/internal/storage/cache"
	"github.com/goodtune/silentspaces/internal/storage/memory"
	"github.com/goodtune/silentspaces/internal/storage/redis"
	"github.com/goodtune/silentspaces/internal/systemd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the SilentSpaces API server",
	Long:  `Start the SilentSpaces HTTP API and, unless disabled, the Prometheus metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting SilentSpaces")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	clk := clock.RealClock{}

	// Initialize storage
	store, err := openStorage(cfg.Storage, clk)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Int("user_cache_size", cfg.Storage.UserCacheSize).
		Msg("Storage initialized")

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := storage.SeedZones(seedCtx, store.Zones(), cfg.Zones)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("failed to seed zones: %w", err)
	}
	logger.Info().Int("created", created).Msg("Zones seeded")

	// Zone occupancy is read from storage at scrape time
	prometheus.MustRegister(metrics.NewOccupancyCollector(store.Zones(), logger))

	checkinService := checkin.NewService(store, logger)

	// Initialize API server
	apiConfig := server.Config{
		ListenAddr:      fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadTimeout:     config.ParseDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout:    config.ParseDuration(cfg.Server.WriteTimeout, 15*time.Second),
		ShutdownTimeout: config.ParseDuration(cfg.Server.ShutdownTimeout, 10*time.Second),
		PollIntervals: api.PollIntervals{
			Zones:    config.ParseDuration(cfg.Presence.ZonesPollInterval, 30*time.Second),
			Presence: config.ParseDuration(cfg.Presence.PresencePollInterval, 10*time.Second),
		},
		Clock: clk,
	}

	apiServer := server.NewServer(apiConfig, store, checkinService, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.HTTP != nil {
		apiServer.SetListener(sdListeners.HTTP)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Initialize Metrics Server
	var metricsServer *metrics.Server
	if cfg.Server.MetricsPort != 0 {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
		metricsServer = metrics.NewServer(metricsAddr, prometheus.DefaultGatherer, logger)

		if sdListeners.Activated && sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}

		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	logger.Info().Msg("SilentSpaces startup complete")
	logger.Info().Msgf("API: http://%s/api", apiConfig.ListenAddr)
	if metricsServer != nil {
		logger.Info().Msgf("Metrics: http://%s:%d/metrics", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	}

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go systemd.RunWatchdog(ctx, logger)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("SilentSpaces stopped")

	return nil
}

func openStorage(cfg config.StorageConfig, c clock.Clock) (storage.Store, error) {
	var store storage.Store
	switch cfg.Type {
	case "", "memory":
		store = memory.New(c)
	case "redis":
		rs, err := redis.Open(cfg.Redis, c)
		if err != nil {
			return nil, err
		}
		store = rs
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if cfg.UserCacheSize <= 0 {
		return store, nil
	}

	cached, err := cache.Wrap(store, cfg.UserCacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return cached, nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
