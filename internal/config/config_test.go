package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data/whereonearth.db", cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 5, cfg.MaxWriteRetries)
	assert.Empty(t, cfg.OperatorKeyHash)
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("GEOCODE_TIMEOUT", "750ms")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.GeocodeTimeout)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CATALOG_PATH=catalog.yaml\nMAX_WRITE_RETRIES=9\n"), 0o600))
	t.Setenv("MAX_WRITE_RETRIES", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 3, cfg.MaxWriteRetries)

	os.Unsetenv("CATALOG_PATH")
}

func TestLoadInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_WRITE_RETRIES", "lots")

	_, err := Load()
	assert.Error(t, err)
}
