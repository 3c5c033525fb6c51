package pollen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pollenpaw/pollenpaw/internal/cache"
	"github.com/pollenpaw/pollenpaw/internal/environment"
	"github.com/pollenpaw/pollenpaw/internal/featureflags"
	"github.com/pollenpaw/pollenpaw/internal/geocode"
	"github.com/pollenpaw/pollenpaw/internal/telemetry"
)

// Provider defines the interface for pollen data providers.
type Provider interface {
	// GetForecast fetches per-plant readings for up to days days.
	GetForecast(ctx context.Context, lat, lng float64, days int) ([]DayReadings, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the pollen service.
type ServiceConfig struct {
	// Provider is the pollen data provider.
	Provider Provider

	// Geocoder resolves zip codes to coordinates.
	Geocoder geocode.Geocoder

	// Store caches forecasts and historical lookups (optional, in-memory by default).
	Store cache.Store

	// Environment persists daily values (optional).
	Environment environment.Repository

	// Taxonomy overrides the default plant code table (optional).
	Taxonomy *Taxonomy

	// FeatureFlags is the feature flag service (optional).
	// Controls the zero policy and cached-only history lookups.
	FeatureFlags *featureflags.Service

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache forecasts (default: 1 hour).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale forecasts on provider errors (default: 6 hours).
	StaleIfErrorTTL time.Duration

	// HistoryTTL is how long historical lookups stay cached (default: 24 hours).
	HistoryTTL time.Duration

	// ForecastDays is the number of days requested (default: 5).
	ForecastDays int
}

// Service provides pollen forecasts and historical lookups.
type Service struct {
	provider        Provider
	geocoder        geocode.Geocoder
	store           cache.Store
	environment     environment.Repository
	taxonomy        *Taxonomy
	featureFlags    *featureflags.Service
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	historyTTL      time.Duration
	forecastDays    int
}

// NewService creates a new pollen service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 6 * time.Hour
	}

	historyTTL := cfg.HistoryTTL
	if historyTTL == 0 {
		historyTTL = 24 * time.Hour
	}

	forecastDays := cfg.ForecastDays
	if forecastDays == 0 {
		forecastDays = 5
	}

	store := cfg.Store
	if store == nil {
		store = cache.NewMemoryStore(nil)
	}

	taxonomy := cfg.Taxonomy
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}

	return &Service{
		provider:        cfg.Provider,
		geocoder:        cfg.Geocoder,
		store:           store,
		environment:     cfg.Environment,
		taxonomy:        taxonomy,
		featureFlags:    cfg.FeatureFlags,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		historyTTL:      historyTTL,
		forecastDays:    forecastDays,
	}
}

// Extractor returns an extractor honoring the current zero policy flag.
func (s *Service) Extractor(ctx context.Context) *Extractor {
	policy := ZeroAsMissing
	if s.featureFlags.IsPollenZeroAsReading(ctx) {
		policy = ZeroAsReading
	}
	return NewExtractor(s.taxonomy, policy)
}

// GetForecast returns the multi-day forecast for a zip code.
func (s *Service) GetForecast(ctx context.Context, zipCode string) (*Forecast, error) {
	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		return nil, ErrInvalidZipCode
	}

	key := s.forecastKey(ctx, zipCode)
	var cached Forecast
	if found, err := cache.GetJSON(ctx, s.store, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("pollen cache read failed")
	} else if found {
		return &cached, nil
	}

	forecast, err := s.fetchForecast(ctx, zipCode)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			return nil, err
		}
		var stale Forecast
		if found, _ := cache.GetJSON(ctx, s.store, key+":stale", &stale); found {
			s.logger.Warn().Err(err).
				Str("zip_code", zipCode).
				Msg("serving stale pollen forecast due to provider error")
			return &stale, nil
		}
		return nil, err
	}

	s.put(ctx, key, forecast, s.cacheTTL)
	s.put(ctx, key+":stale", forecast, s.staleIfErrorTTL)
	return forecast, nil
}

// GetForDate returns the forecast for one calendar day.
// Lookups are served from the cache store, then persisted environmental
// data, then the provider's forecast window. Returns ErrNoData when none has it.
func (s *Service) GetForDate(ctx context.Context, zipCode, date string) (*DailyForecast, error) {
	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		return nil, ErrInvalidZipCode
	}
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("pollen:%s-%s", zipCode, date)
	var cached DailyForecast
	if found, err := cache.GetJSON(ctx, s.store, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("pollen cache read failed")
	} else if found {
		return &cached, nil
	}

	if day := s.fromEnvironment(ctx, zipCode, date); day != nil {
		s.put(ctx, key, day, s.historyTTL)
		return day, nil
	}

	if s.featureFlags.IsCachedOnlyPollenHistory(ctx) {
		return nil, ErrNoData
	}

	forecast, err := s.GetForecast(ctx, zipCode)
	if err != nil {
		return nil, err
	}

	for i := range forecast.Days {
		if forecast.Days[i].Date == date {
			day := forecast.Days[i]
			s.put(ctx, key, &day, s.historyTTL)
			return &day, nil
		}
	}

	return nil, ErrNoData
}

// Record looks up a day's pollen and persists it to environmental data.
func (s *Service) Record(ctx context.Context, zipCode, date string) (*DailyForecast, error) {
	if s.environment == nil {
		return nil, errors.New("pollen: no environment repository configured")
	}

	day, err := s.GetForDate(ctx, zipCode, date)
	if err != nil {
		return nil, err
	}

	err = s.environment.UpsertPollen(ctx, zipCode, date, environment.PollenValues{
		Tree:  day.Extracted.Tree,
		Grass: day.Extracted.Grass,
		Weed:  day.Extracted.Weed,
		Level: string(day.Level),
	})
	if err != nil {
		return nil, fmt.Errorf("storing pollen for %s on %s: %w", zipCode, date, err)
	}

	return day, nil
}

// ProviderName returns the configured provider's name.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

func (s *Service) fetchForecast(ctx context.Context, zipCode string) (_ *Forecast, err error) {
	ctx, span := telemetry.StartSpan(ctx, "pollen.fetch_forecast",
		attribute.String("zip_code", zipCode),
		attribute.String("provider", s.provider.Name()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	loc, err := s.geocoder.Geocode(ctx, zipCode)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("zip_code", zipCode).
		Float64("lat", loc.Lat).
		Float64("lng", loc.Lng).
		Str("provider", s.provider.Name()).
		Msg("fetching pollen forecast from provider")

	days, err := s.provider.GetForecast(ctx, loc.Lat, loc.Lng, s.forecastDays)
	if err != nil {
		s.logger.Error().Err(err).
			Str("zip_code", zipCode).
			Msg("failed to fetch pollen forecast")
		return nil, err
	}

	return &Forecast{
		ZipCode:  zipCode,
		Location: loc.FormattedAddress,
		Lat:      loc.Lat,
		Lng:      loc.Lng,
		Days:     BuildForecast(days, s.Extractor(ctx)),
		Provider: s.provider.Name(),
	}, nil
}

// fromEnvironment rebuilds a day from stored values. Stored rows carry no
// recommendations.
func (s *Service) fromEnvironment(ctx context.Context, zipCode, date string) *DailyForecast {
	if s.environment == nil {
		return nil
	}
	rec, err := s.environment.Get(ctx, zipCode, date)
	if err != nil {
		if !errors.Is(err, environment.ErrNotFound) {
			s.logger.Warn().Err(err).Str("zip_code", zipCode).Str("date", date).Msg("environment lookup failed")
		}
		return nil
	}
	if rec.TreePollen == nil && rec.GrassPollen == nil && rec.WeedPollen == nil {
		return nil
	}

	tree, grass, weed := rec.PollenOrZero()
	extracted := Extracted{
		Tree:                 tree,
		Grass:                grass,
		Weed:                 weed,
		TreeRecommendations:  []string{},
		GrassRecommendations: []string{},
		WeedRecommendations:  []string{},
	}
	return &DailyForecast{
		Date:            date,
		Extracted:       extracted,
		Level:           extracted.Level(),
		Recommendations: []string{},
	}
}

// forecastKey includes the zero policy so a flag flip is not masked by cache.
func (s *Service) forecastKey(ctx context.Context, zipCode string) string {
	return fmt.Sprintf("pollen:forecast:%s:%s", s.Extractor(ctx).ZeroPolicy(), zipCode)
}

func (s *Service) put(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := cache.SetJSON(ctx, s.store, key, value, ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("pollen cache write failed")
	}
}
