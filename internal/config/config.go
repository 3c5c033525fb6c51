// Package config loads service configuration from the environment, an
// optional .env file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Google    GoogleConfig    `mapstructure:"google"`
	Events    EventsConfig    `mapstructure:"events"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Pollen    PollenConfig    `mapstructure:"pollen"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequireTLS      bool          `mapstructure:"require_tls"`
}

// DatabaseConfig selects the persistence backend. An empty URL keeps
// everything in memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Migrate         bool          `mapstructure:"migrate"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	PingRetries     uint64        `mapstructure:"ping_retries"`
}

// CacheConfig selects the cache.Store implementation.
type CacheConfig struct {
	Driver    string `mapstructure:"driver"` // memory, redis or valkey
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// GoogleConfig holds Google Maps Platform credentials.
type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// EventsConfig selects the event publisher.
type EventsConfig struct {
	Driver string `mapstructure:"driver"` // none, kafka or pubsub
}

// KafkaConfig configures the Kafka transport.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// PubSubConfig configures the Pub/Sub transport.
type PubSubConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Topic        string `mapstructure:"topic"`
	Subscription string `mapstructure:"subscription"`
}

// StorageConfig configures photo object storage.
type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// Enabled reports whether photo uploads are configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	JWTAudience   string `mapstructure:"jwt_audience"`
}

// WorkerConfig configures the background refresh.
type WorkerConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Interval     time.Duration `mapstructure:"interval"`
	SeedZipCodes []string      `mapstructure:"seed_zip_codes"`
}

// PollenConfig configures pollen extraction and the upstream provider.
type PollenConfig struct {
	// Provider is "google" or "ambee".
	Provider     string        `mapstructure:"provider"`
	AmbeeAPIKey  string        `mapstructure:"ambee_api_key"`
	TaxonomyFile string        `mapstructure:"taxonomy_file"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	HistoryTTL   time.Duration `mapstructure:"history_ttl"`
}

// DefaultDevSigningKey is used outside production when no key is set.
const DefaultDevSigningKey = "local-dev-signing-key-change-in-production"

// ErrMissingSigningKey is returned in production without AUTH_JWT_SIGNING_KEY.
var ErrMissingSigningKey = errors.New("AUTH_JWT_SIGNING_KEY is required in production")

// Load reads configuration. A missing .env or config.yaml is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names kept from the original deployment manifests.
	for key, env := range map[string]string{
		"environment":             "APP_ENV",
		"database.url":            "DATABASE_URL",
		"server.port":             "APP_PORT",
		"server.require_tls":      "REQUIRE_TLS",
		"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
		"telemetry.enabled":       "OTEL_ENABLED",
		"auth.jwt_signing_key":    "JWT_SIGNING_KEY",
	} {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Environment = strings.ToLower(cfg.Environment)
	if cfg.Auth.JWTSigningKey == "" {
		if cfg.Environment == "production" {
			return nil, ErrMissingSigningKey
		}
		cfg.Auth.JWTSigningKey = DefaultDevSigningKey
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.require_tls", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 5*time.Minute)
	v.SetDefault("database.ping_retries", 5)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.url", "")
	v.SetDefault("cache.key_prefix", "pollenpaw:")

	v.SetDefault("google.api_key", "")

	v.SetDefault("events.driver", "none")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "pollenpaw-jobs")
	v.SetDefault("kafka.group_id", "pollenpaw-worker")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "pollenpaw-jobs")
	v.SetDefault("pubsub.subscription", "pollenpaw-worker")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")

	v.SetDefault("auth.jwt_signing_key", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.jwt_audience", "")

	v.SetDefault("worker.concurrency", 3)
	v.SetDefault("worker.timeout", 30*time.Second)
	v.SetDefault("worker.interval", 6*time.Hour)
	v.SetDefault("worker.seed_zip_codes", []string{})

	v.SetDefault("pollen.provider", "google")
	v.SetDefault("pollen.ambee_api_key", "")
	v.SetDefault("pollen.taxonomy_file", "")
	v.SetDefault("pollen.cache_ttl", time.Hour)
	v.SetDefault("pollen.history_ttl", 24*time.Hour)
}
