// Package app wires pollenpaw's services from configuration. Both the API
// server and the worker build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/pollenpaw/pollenpaw/internal/airquality"
	aqgoogle "github.com/pollenpaw/pollenpaw/internal/airquality/google"
	"github.com/pollenpaw/pollenpaw/internal/analysis"
	"github.com/pollenpaw/pollenpaw/internal/api/handler"
	"github.com/pollenpaw/pollenpaw/internal/cache"
	"github.com/pollenpaw/pollenpaw/internal/config"
	"github.com/pollenpaw/pollenpaw/internal/database"
	"github.com/pollenpaw/pollenpaw/internal/environment"
	"github.com/pollenpaw/pollenpaw/internal/events"
	"github.com/pollenpaw/pollenpaw/internal/featureflags"
	"github.com/pollenpaw/pollenpaw/internal/geocode"
	geogoogle "github.com/pollenpaw/pollenpaw/internal/geocode/google"
	"github.com/pollenpaw/pollenpaw/internal/pet"
	"github.com/pollenpaw/pollenpaw/internal/photo"
	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/pollen/ambee"
	pollengoogle "github.com/pollenpaw/pollenpaw/internal/pollen/google"
	"github.com/pollenpaw/pollenpaw/internal/provider/resilience"
	"github.com/pollenpaw/pollenpaw/internal/symptom"
)

// Cache drivers accepted in CACHE_DRIVER.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheValkey = "valkey"
)

// Configuration errors.
var (
	ErrUnknownCacheDriver    = errors.New("unknown cache driver")
	ErrUnknownPollenProvider = errors.New("unknown pollen provider")
)

// geocodeTTL is how long zip code lookups are cached. Postal codes rarely move.
const geocodeTTL = 30 * 24 * time.Hour

// App holds the wired services.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Clock    clockwork.Clock
	Registry *resilience.Registry

	Pool  *pgxpool.Pool // nil when running in memory
	Cache cache.Store

	FeatureFlags *featureflags.Service
	Environment  environment.Repository
	Pets         *pet.Service
	Symptoms     *symptom.Service
	Analysis     *analysis.Service
	Pollen       *pollen.Service
	AirQuality   *airquality.Service
	Photos       *photo.Service // nil when storage is not configured
	Publisher    events.Publisher

	// Checks are the readiness dependencies.
	Checks []handler.Check

	petRepo     pet.Repository
	symptomRepo symptom.Repository
	flagRepo    featureflags.Repository

	geocoder           geocode.Geocoder
	pollenProvider     pollen.Provider
	airQualityProvider airquality.Provider
	taxonomy           *pollen.Taxonomy

	closers []func()
}

// BootLogger logs startup failures that happen before configuration is loaded.
func BootLogger(w io.Writer, service string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}

// NewLogger builds the root logger. LOG_FORMAT=console writes human-readable
// output for local development.
func NewLogger(cfg *config.Config, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if cfg.LogFormat == "console" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		base = zerolog.New(os.Stdout)
	}

	return base.Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// New connects to backing services and builds every domain service.
// Call Close on the result, including after a partial failure is returned.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   log,
		Clock:    clockwork.NewRealClock(),
		Registry: resilience.NewRegistry(),
	}

	if err := a.connectDatabase(ctx); err != nil {
		return a, err
	}
	if err := a.connectCache(ctx); err != nil {
		return a, err
	}

	a.buildRepositories()

	if err := a.buildProviders(); err != nil {
		return a, err
	}

	publisher, err := events.New(ctx, events.Config{
		Driver:          cfg.Events.Driver,
		KafkaBrokers:    cfg.Kafka.Brokers,
		KafkaTopic:      cfg.Kafka.Topic,
		PubSubProjectID: cfg.PubSub.ProjectID,
		PubSubTopic:     cfg.PubSub.Topic,
	}, log)
	if err != nil {
		return a, fmt.Errorf("creating event publisher: %w", err)
	}
	a.Publisher = publisher
	a.closers = append(a.closers, func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close event publisher")
		}
	})

	a.buildServices()

	if err := a.buildPhotos(); err != nil {
		return a, err
	}

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) connectDatabase(ctx context.Context) error {
	if a.Config.Database.URL == "" {
		a.Logger.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
		return nil
	}

	cfg := a.Config.Database
	pool, err := database.Connect(ctx, database.Config{
		URL:             cfg.URL,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		PingRetries:     cfg.PingRetries,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)
	a.Checks = append(a.Checks, handler.Check{Name: "postgres", Pinger: pool})

	if cfg.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	a.Logger.Info().Msg("database connected")
	return nil
}

func (a *App) connectCache(ctx context.Context) error {
	cfg := a.Config.Cache

	switch cfg.Driver {
	case "", CacheMemory:
		a.Cache = cache.NewMemoryStore(a.Clock)
	case CacheRedis:
		store, err := cache.NewRedisStoreFromURL(ctx, cfg.URL, cfg.KeyPrefix)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.Cache = store
		a.Checks = append(a.Checks, handler.Check{Name: "redis", Pinger: store})
		a.closers = append(a.closers, func() { _ = store.Close() })
	case CacheValkey:
		store, err := cache.NewValkeyStoreFromAddr(ctx, cfg.URL, cfg.KeyPrefix)
		if err != nil {
			return fmt.Errorf("connecting to valkey: %w", err)
		}
		a.Cache = store
		a.Checks = append(a.Checks, handler.Check{Name: "valkey", Pinger: store})
		a.closers = append(a.closers, store.Close)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheDriver, cfg.Driver)
	}

	a.Logger.Info().Str("driver", cfg.Driver).Msg("cache initialized")
	return nil
}

func (a *App) buildRepositories() {
	if a.Pool != nil {
		a.Environment = environment.NewPostgresRepository(a.Pool)
		a.petRepo = pet.NewPostgresRepository(a.Pool)
		a.symptomRepo = symptom.NewPostgresRepository(a.Pool)
		a.flagRepo = featureflags.NewPostgresRepository(a.Pool)
		return
	}

	env := environment.NewInMemoryRepository()
	a.Environment = env
	a.petRepo = pet.NewInMemoryRepository()
	a.symptomRepo = symptom.NewInMemoryRepository(env)
	a.flagRepo = featureflags.NewInMemoryRepository()
}

// httpClient builds a resilient client reported on /v1/ops/status.
func (a *App) httpClient(name string) *resilience.Client {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = a.Registry
	cfg.Logger = a.Logger
	return resilience.NewClient(cfg)
}

func (a *App) buildProviders() error {
	cfg := a.Config
	if cfg.Google.APIKey == "" {
		a.Logger.Warn().Msg("GOOGLE_API_KEY not set, provider lookups will fail")
	}

	a.geocoder = geocode.NewCachedGeocoder(
		geogoogle.NewClient(geogoogle.ClientConfig{
			APIKey:     cfg.Google.APIKey,
			HTTPClient: a.httpClient(geogoogle.ProviderName),
			Logger:     a.Logger,
		}),
		a.Cache, geocodeTTL, a.Logger,
	)

	switch cfg.Pollen.Provider {
	case "", "google":
		a.pollenProvider = pollengoogle.NewClient(pollengoogle.ClientConfig{
			APIKey:     cfg.Google.APIKey,
			HTTPClient: a.httpClient(pollengoogle.ProviderName),
			Logger:     a.Logger,
		})
	case "ambee":
		a.pollenProvider = ambee.NewClient(ambee.ClientConfig{
			APIKey:     cfg.Pollen.AmbeeAPIKey,
			HTTPClient: a.httpClient(ambee.ProviderName),
			Logger:     a.Logger,
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPollenProvider, cfg.Pollen.Provider)
	}

	a.airQualityProvider = aqgoogle.NewClient(aqgoogle.ClientConfig{
		APIKey:     cfg.Google.APIKey,
		HTTPClient: a.httpClient(aqgoogle.ProviderName),
		Logger:     a.Logger,
	})

	if cfg.Pollen.TaxonomyFile != "" {
		taxonomy, err := pollen.LoadTaxonomy(cfg.Pollen.TaxonomyFile)
		if err != nil {
			return fmt.Errorf("loading pollen taxonomy: %w", err)
		}
		a.taxonomy = taxonomy
	}

	a.Logger.Info().
		Str("pollen_provider", a.pollenProvider.Name()).
		Msg("providers initialized")
	return nil
}

func (a *App) buildServices() {
	a.FeatureFlags = featureflags.NewService(featureflags.ServiceConfig{
		Repository: a.flagRepo,
		Logger:     a.Logger,
		CacheTTL:   time.Minute,
	})

	a.Pets = pet.NewService(a.petRepo)

	a.Symptoms = symptom.NewService(symptom.ServiceConfig{
		Repository:   a.symptomRepo,
		Pets:         a.Pets,
		Publisher:    a.Publisher,
		FeatureFlags: a.FeatureFlags,
		Clock:        a.Clock,
		Logger:       a.Logger,
	})

	a.Analysis = analysis.NewService(analysis.ServiceConfig{
		Pets:   a.Pets,
		Series: a.Symptoms,
		Logger: a.Logger,
	})

	a.Pollen = pollen.NewService(pollen.ServiceConfig{
		Provider:     a.pollenProvider,
		Geocoder:     a.geocoder,
		Store:        a.Cache,
		Environment:  a.Environment,
		Taxonomy:     a.taxonomy,
		FeatureFlags: a.FeatureFlags,
		Logger:       a.Logger,
		CacheTTL:     a.Config.Pollen.CacheTTL,
		HistoryTTL:   a.Config.Pollen.HistoryTTL,
	})

	a.AirQuality = airquality.NewService(airquality.ServiceConfig{
		Provider:     a.airQualityProvider,
		Geocoder:     a.geocoder,
		Environment:  a.Environment,
		Store:        a.Cache,
		FeatureFlags: a.FeatureFlags,
		Clock:        a.Clock,
		Logger:       a.Logger,
	})
}

func (a *App) buildPhotos() error {
	storage := a.Config.Storage
	if !storage.Enabled() {
		a.Logger.Info().Msg("photo storage not configured, uploads disabled")
		return nil
	}

	client, err := photo.NewMinioClient(photo.StorageConfig{
		Endpoint:  storage.Endpoint,
		AccessKey: storage.AccessKey,
		SecretKey: storage.SecretKey,
		Bucket:    storage.Bucket,
		Region:    storage.Region,
	})
	if err != nil {
		return err
	}

	a.Photos = photo.NewService(photo.ServiceConfig{
		Presigner:     client,
		Bucket:        storage.Bucket,
		PublicBaseURL: storage.PublicBaseURL,
		Clock:         a.Clock,
		Logger:        a.Logger,
	})
	return nil
}
