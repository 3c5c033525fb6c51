package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, time.Hour, cfg.Pollen.CacheTTL)
	assert.Equal(t, config.DefaultDevSigningKey, cfg.Auth.JWTSigningKey)
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_PORT", "9000")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("CACHE_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "postgres://pp:pp@localhost/pollenpaw")
	t.Setenv("WORKER_SEED_ZIP_CODES", "98074,10001")
	t.Setenv("WORKER_TIMEOUT", "45s")
	t.Setenv("AUTH_JWT_SIGNING_KEY", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.URL)
	assert.Equal(t, "postgres://pp:pp@localhost/pollenpaw", cfg.Database.URL)
	assert.Equal(t, []string{"98074", "10001"}, cfg.Worker.SeedZipCodes)
	assert.Equal(t, 45*time.Second, cfg.Worker.Timeout)
	assert.Equal(t, "secret", cfg.Auth.JWTSigningKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte("events:\n  driver: kafka\nkafka:\n  topic: pets\nstorage:\n  endpoint: localhost:9000\n  bucket: photos\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, "pets", cfg.Kafka.Topic)
	assert.True(t, cfg.Storage.Enabled())
}

func TestLoad_ProductionRequiresSigningKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingSigningKey)
}
