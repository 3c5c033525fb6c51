// Package api provides the HTTP API for pollenpaw.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/api/handler"
	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// RequireTLS rejects plain HTTP requests not forwarded from a TLS proxy.
	RequireTLS bool

	// TokenValidator verifies bearer tokens.
	TokenValidator middleware.TokenValidator

	// Checks are the readiness dependencies.
	Checks []handler.Check

	// Registry reports upstream provider health on /ops/status.
	Registry *resilience.Registry

	PetService         handler.PetService
	PetLookup          handler.PetLookup
	SymptomService     handler.SymptomService
	AnalysisService    handler.AnalysisService
	PollenService      handler.PollenService
	AirQualityService  handler.AirQualityService
	FeatureFlagService handler.FlagService

	// PhotoService is nil when object storage is not configured.
	PhotoService handler.PhotoService
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:      cfg.Version,
		BuildTime:    cfg.BuildTime,
		Checks:       cfg.Checks,
		Registry:     cfg.Registry,
		FeatureFlags: cfg.FeatureFlagService,
	})
	petHandler := handler.NewPetHandler(cfg.PetService)
	symptomHandler := handler.NewSymptomHandler(cfg.SymptomService)
	analysisHandler := handler.NewAnalysisHandler(cfg.AnalysisService)
	pollenHandler := handler.NewPollenHandler(cfg.PollenService)
	airQualityHandler := handler.NewAirQualityHandler(cfg.AirQualityService)
	photoHandler := handler.NewPhotoHandler(cfg.PhotoService, cfg.PetLookup)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.TokenValidator)

	// Create rate limit middleware for different endpoint categories
	uploadRateLimit := middleware.RateLimit(middleware.TierUpload)
	expensiveRateLimit := middleware.RateLimit(middleware.TierUpstream)
	standardRateLimit := middleware.RateLimit(middleware.TierStandard)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Everything else is authenticated
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			// Upstream-backed lookups
			r.Group(func(r chi.Router) {
				r.Use(expensiveRateLimit)
				r.Get("/pollen/forecast", pollenHandler.GetForecast)
				r.Get("/pollen/history", pollenHandler.GetHistory)
				r.Get("/air-quality", airQualityHandler.GetCurrent)
			})

			r.Route("/pets", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", petHandler.ListPets)
				r.With(standardRateLimit, middleware.RequireJSON).Post("/", petHandler.CreatePet)

				r.Route("/{petId}", func(r chi.Router) {
					r.With(standardRateLimit).Get("/", petHandler.GetPet)
					r.With(standardRateLimit, middleware.RequireJSON).Patch("/", petHandler.UpdatePet)
					r.With(standardRateLimit).Delete("/", petHandler.DeletePet)

					// Symptom logs
					r.Route("/symptoms", func(r chi.Router) {
						r.Use(standardRateLimit)
						r.Get("/", symptomHandler.ListSymptoms)
						r.With(middleware.RequireJSON).Post("/", symptomHandler.CreateSymptom)
						r.Route("/{logId}", func(r chi.Router) {
							r.Get("/", symptomHandler.GetSymptom)
							r.With(middleware.RequireJSON).Patch("/", symptomHandler.UpdateSymptom)
							r.Delete("/", symptomHandler.DeleteSymptom)
						})
					})

					// Correlation analysis - expensive compute
					r.Route("/analysis", func(r chi.Router) {
						r.Use(expensiveRateLimit)
						r.Get("/correlation", analysisHandler.GetCorrelation)
						r.Get("/export.xlsx", analysisHandler.ExportCorrelation)
					})
				})
			})

			// Photo uploads - strict rate limiting
			r.With(uploadRateLimit, middleware.RequireJSON).Post("/photos/upload-url", photoHandler.CreateUpload)

			// Feature flags
			r.Route("/feature-flags", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.With(middleware.RequireJSON).Patch("/", featureFlagsHandler.UpdateFeatureFlags)
			})
		})
	})

	return r
}
