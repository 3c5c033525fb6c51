// Package main provides the entrypoint for the pollenpaw API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/api"
	"github.com/pollenpaw/pollenpaw/internal/api/handler"
	"github.com/pollenpaw/pollenpaw/internal/api/middleware"
	"github.com/pollenpaw/pollenpaw/internal/app"
	"github.com/pollenpaw/pollenpaw/internal/auth"
	"github.com/pollenpaw/pollenpaw/internal/config"
	"github.com/pollenpaw/pollenpaw/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "pollenpaw-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := app.BootLogger(os.Stderr, serviceName)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := app.NewLogger(cfg, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting pollenpaw API")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	defer a.Close()
	if err != nil {
		return err
	}

	if cfg.Auth.JWTSigningKey == config.DefaultDevSigningKey {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.Auth.JWTSigningKey,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
	})

	// A nil *photo.Service must stay a nil interface.
	var photos handler.PhotoService
	if a.Photos != nil {
		photos = a.Photos
	}

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		Metrics:            metrics,
		RequireTLS:         cfg.Server.RequireTLS,
		TokenValidator:     jwtService,
		Checks:             a.Checks,
		Registry:           a.Registry,
		PetService:         a.Pets,
		PetLookup:          a.Pets,
		SymptomService:     a.Symptoms,
		AnalysisService:    a.Analysis,
		PollenService:      a.Pollen,
		AirQualityService:  a.AirQuality,
		FeatureFlagService: a.FeatureFlags,
		PhotoService:       photos,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
