// Package main provides the entrypoint for the ShuttleRoute worker. The
// worker consumes roster change and precompute jobs from Pub/Sub and keeps
// the plan cache warm for the configured organizations.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/database"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/planner"
	"github.com/shuttleroute/shuttleroute/internal/telemetry"
	"github.com/shuttleroute/shuttleroute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "shuttleroute-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting ShuttleRoute worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to Redis for plan memoization
	redisConfig := cache.RedisConfigFromEnv()
	backend, err := cache.ConnectRedis(ctx, redisConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer backend.Close()

	gateway := cache.NewGateway(cache.GatewayConfig{
		Backend: backend,
		TTL:     cache.DefaultTTL,
		Logger:  log,
	})

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	planService := planner.NewService(planner.ServiceConfig{
		Directory: fleet.NewPostgresDirectory(pool),
		Cache:     gateway,
		Logger:    log,
	})

	precomputeConfig := worker.DefaultPrecomputeConfig()
	precomputeConfig.Targets = parseTargets(os.Getenv("PRECOMPUTE_TARGETS"))
	if v := os.Getenv("PRECOMPUTE_CONCURRENCY"); v != "" {
		if n, convErr := strconv.Atoi(v); convErr == nil && n > 0 {
			precomputeConfig.Concurrency = n
		}
	}

	precomputeJob := worker.NewPrecomputeJob(worker.PrecomputeJobConfig{
		Config:  precomputeConfig,
		Logger:  log,
		Planner: planService,
	})
	log.Info().
		Int("targets", len(precomputeConfig.Targets)).
		Int("shifts", precomputeConfig.TotalShifts()).
		Msg("precompute job initialized")

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscription == "" {
		subscription = "shuttleroute-worker-jobs"
	}

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscription,
		PrecomputeJob:    precomputeJob,
		Cache:            gateway,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer handler.Close()

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go func() {
		log.Info().
			Str("subscription", subscription).
			Msg("worker started, waiting for messages")

		if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("pubsub receive error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// parseTargets parses PRECOMPUTE_TARGETS. The format is a semicolon separated
// list of "orgID:shiftID,shiftID" entries, e.g.
// "org-1:morning,evening;org-2:day".
func parseTargets(raw string) []worker.PrecomputeTarget {
	if raw == "" {
		return nil
	}

	var targets []worker.PrecomputeTarget
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		orgID, shifts, found := strings.Cut(entry, ":")
		if !found || orgID == "" {
			continue
		}

		var shiftIDs []string
		for _, s := range strings.Split(shifts, ",") {
			if s = strings.TrimSpace(s); s != "" {
				shiftIDs = append(shiftIDs, s)
			}
		}
		if len(shiftIDs) == 0 {
			continue
		}

		targets = append(targets, worker.PrecomputeTarget{
			OrganizationID: strings.TrimSpace(orgID),
			ShiftIDs:       shiftIDs,
		})
	}
	return targets
}
