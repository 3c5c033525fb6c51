package airquality

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/cache"
	"github.com/pollenpaw/pollenpaw/internal/environment"
	"github.com/pollenpaw/pollenpaw/internal/featureflags"
	"github.com/pollenpaw/pollenpaw/internal/geocode"
)

// Provider defines the interface for air quality data providers.
type Provider interface {
	// CurrentConditions returns the current index for a coordinate.
	CurrentConditions(ctx context.Context, lat, lng float64) (*Conditions, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Geocoder resolves zip codes to coordinates.
	Geocoder geocode.Geocoder

	// Environment receives every successful lookup (optional).
	Environment environment.Repository

	// Store caches readings (optional, in-memory by default).
	Store cache.Store

	// FeatureFlags is the feature flag service (optional).
	FeatureFlags *featureflags.Service

	// Clock supplies "today" (optional, real clock by default).
	Clock clockwork.Clock

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache a reading (default: 30 minutes).
	CacheTTL time.Duration
}

// Service looks up and records air quality.
type Service struct {
	provider     Provider
	geocoder     geocode.Geocoder
	environment  environment.Repository
	store        cache.Store
	featureFlags *featureflags.Service
	clock        clockwork.Clock
	logger       zerolog.Logger
	cacheTTL     time.Duration
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	store := cfg.Store
	if store == nil {
		store = cache.NewMemoryStore(nil)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		provider:     cfg.Provider,
		geocoder:     cfg.Geocoder,
		environment:  cfg.Environment,
		store:        store,
		featureFlags: cfg.FeatureFlags,
		clock:        clock,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
	}
}

// Current returns today's reading for a zip code and records it.
func (s *Service) Current(ctx context.Context, zipCode string) (*Reading, error) {
	return s.Record(ctx, zipCode, s.clock.Now().UTC().Format("2006-01-02"))
}

// Record fetches the current index and stores it under date.
func (s *Service) Record(ctx context.Context, zipCode, date string) (*Reading, error) {
	if s.featureFlags.IsAirQualityDisabled(ctx) {
		s.logger.Debug().Msg("air quality disabled by feature flag")
		return nil, ErrDisabled
	}

	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		return nil, ErrInvalidZipCode
	}

	key := fmt.Sprintf("aqi:%s-%s", zipCode, date)
	var cached Reading
	if found, err := cache.GetJSON(ctx, s.store, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("air quality cache read failed")
	} else if found {
		return &cached, nil
	}

	loc, err := s.geocoder.Geocode(ctx, zipCode)
	if err != nil {
		return nil, err
	}

	conditions, err := s.provider.CurrentConditions(ctx, loc.Lat, loc.Lng)
	if err != nil {
		s.logger.Error().Err(err).
			Str("zip_code", zipCode).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch air quality")
		return nil, err
	}

	reading := &Reading{
		ZipCode:           zipCode,
		Date:              date,
		AQI:               conditions.AQI,
		Category:          conditions.Category,
		DominantPollutant: conditions.DominantPollutant,
		Lat:               loc.Lat,
		Lng:               loc.Lng,
		Provider:          s.provider.Name(),
		FetchedAt:         s.clock.Now().UTC(),
	}

	if s.environment != nil {
		if err := s.environment.UpsertAirQuality(ctx, zipCode, date, reading.AQI); err != nil {
			return nil, fmt.Errorf("storing air quality for %s on %s: %w", zipCode, date, err)
		}
	}

	if err := cache.SetJSON(ctx, s.store, key, reading, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("air quality cache write failed")
	}

	return reading, nil
}

// IsEnabled reports whether lookups are allowed.
func (s *Service) IsEnabled(ctx context.Context) bool {
	return !s.featureFlags.IsAirQualityDisabled(ctx)
}
