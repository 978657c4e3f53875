// Package main provides the entrypoint for the ShuttleRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/api"
	"github.com/shuttleroute/shuttleroute/internal/api/handler"
	"github.com/shuttleroute/shuttleroute/internal/api/middleware"
	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/cluster"
	"github.com/shuttleroute/shuttleroute/internal/database"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/planner"
	"github.com/shuttleroute/shuttleroute/internal/route"
	"github.com/shuttleroute/shuttleroute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "shuttleroute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting ShuttleRoute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:      serviceName,
		ServiceVersion:   Version,
		Environment:      env,
		OTLPEndpoint:     otlpEndpoint,
		Enabled:          telemetryEnabled,
		TraceSampleRatio: envFloat("OTEL_TRACE_SAMPLE_RATIO", 0),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	planMetrics, err := middleware.NewPlanMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize plan metrics")
		os.Exit(1)
	}

	// Connect to Redis for plan memoization
	redisConfig := cache.RedisConfigFromEnv()
	backend, err := cache.ConnectRedis(ctx, redisConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer backend.Close()
	log.Info().
		Str("addr", redisConfig.Addr).
		Msg("redis connected")

	gateway := cache.NewGateway(cache.GatewayConfig{
		Backend: backend,
		TTL:     envDuration("CACHE_TTL", cache.DefaultTTL),
		Logger:  log,
	})

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	directory := fleet.NewPostgresDirectory(pool)

	// Initialize the planner with tuning from environment
	assigner := cluster.NewAssigner(cluster.Config{
		SwapPasses: envInt("PLAN_SWAP_PASSES", 0),
		Logger:     log,
	})
	sequencerConfig := route.Config{
		TwoOptIterations: envInt("PLAN_TWO_OPT_ITERATIONS", 0),
		AvgSpeedKmh:      envFloat("PLAN_AVG_SPEED_KMH", 0),
		MaxRouteMinutes:  envFloat("PLAN_MAX_ROUTE_MINUTES", 0),
		Logger:           log,
	}
	sequencer := route.NewSequencer(sequencerConfig)

	planService := planner.NewService(planner.ServiceConfig{
		Directory: directory,
		Cache:     gateway,
		Assigner:  assigner,
		Sequencer: sequencer,
		Logger:    log,
	})
	log.Info().Msg("planner service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		PlanMetrics:     planMetrics,
		Planner:         planService,
		Cache:           gateway,
		SequencerConfig: sequencerConfig,
		Checks: []handler.DependencyCheck{
			{Name: "redis", Ping: gateway.Ping},
			{Name: "postgres", Ping: pool.Ping},
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
