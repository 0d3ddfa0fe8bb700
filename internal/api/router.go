// Package api provides the HTTP API for modechoice.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/api/handler"
	"github.com/travelmodel/modechoice/internal/api/middleware"
	"github.com/travelmodel/modechoice/internal/auth"
	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/network"
	"github.com/travelmodel/modechoice/internal/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	JWT         *auth.JWTService
	Evaluations *evaluation.Service
	Networks    *network.Service
	Health      *resilience.Registry
	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "modechoice-api"
	}

	// RequestID runs first so every later layer can read the per request
	// record that Auth fills in. Tracing, metrics and logging wrap the
	// router and resolve the matched route after it returns.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	var readiness handler.ReadinessSource
	if cfg.Evaluations != nil {
		readiness = cfg.Evaluations
	}
	var networkStats handler.NetworkStats
	if cfg.Networks != nil {
		networkStats = cfg.Networks
	}
	var sources handler.SourceHealth
	if cfg.Health != nil {
		sources = cfg.Health
	}
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, readiness, networkStats, sources)
	modesHandler := handler.NewModesHandler(cfg.Evaluations, cfg.Logger)
	evaluationHandler := handler.NewEvaluationHandler(cfg.Evaluations, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.Evaluations, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.JWT)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByClient(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByClient(middleware.StandardRateLimit)   // 100 req/min
	adminRateLimit := middleware.RateLimitByClient(middleware.AdminRateLimit)         // 10 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Evaluation endpoints (authenticated)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireScope(auth.ScopeEvaluate))
			r.Use(middleware.RequireJSON)

			r.With(standardRateLimit).Get("/modes", modesHandler.ListModes)
			r.With(standardRateLimit).Get("/od", evaluationHandler.EvaluateOD)
			r.With(standardRateLimit).Post("/chains:check", evaluationHandler.CheckChains)

			// Household evaluation - expensive compute, strict rate limiting
			r.With(expensiveRateLimit).Post("/evaluations", evaluationHandler.Evaluate)
		})

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireScope(auth.ScopeAdmin))
			r.Use(adminRateLimit)

			r.Post("/networks:reload", adminHandler.ReloadNetworks)
		})
	})

	return r
}
