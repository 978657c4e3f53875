// Package api provides the HTTP API for ShuttleRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/api/handler"
	"github.com/shuttleroute/shuttleroute/internal/api/middleware"
	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/planner"
	"github.com/shuttleroute/shuttleroute/internal/route"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	PlanMetrics *middleware.PlanMetrics
	Planner     *planner.Service
	Cache       *cache.Gateway

	// SequencerConfig carries the route sequencer tunables for ad-hoc
	// optimization, so it runs with the same defaults as plan computation.
	SequencerConfig route.Config

	// Checks are probed by the readiness and status endpoints.
	Checks []handler.DependencyCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "shuttleroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Checks...)
	planHandler := handler.NewPlanHandler(cfg.Planner, cfg.Cache, cfg.PlanMetrics)
	optimizeHandler := handler.NewOptimizeHandler(cfg.SequencerConfig)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)          // 30 req/min
	standardRateLimit := middleware.RateLimitByOrganization(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Plan computation - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/plans:compute", planHandler.ComputePlan)

		// Ad-hoc route optimization - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:optimize", optimizeHandler.OptimizeRoute)

		// Per-organization endpoints - rate limited per organization
		r.Route("/organizations/{organizationId}", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/shuttles/{shuttleId}/plan", planHandler.ShuttlePlan)
			r.Post("/cache:invalidate", planHandler.InvalidateCache)
		})
	})

	return r
}
