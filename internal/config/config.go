package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/whereonearth.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	RedisURL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"whereonearth:announcements"`

	BingMapsKey  string `env:"BING_MAPS_KEY"`
	BingMapsURL  string `env:"BING_MAPS_URL" envDefault:"https://dev.virtualearth.net/REST/v1/Locations"`
	BingImageURL string `env:"BING_IMAGE_URL" envDefault:"https://www.bing.com"`
	CatalogPath  string `env:"CATALOG_PATH"`

	GeocodeTimeout   time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"5s"`
	GeocodeCacheSize int           `env:"GEOCODE_CACHE_SIZE" envDefault:"512"`
	MaxWriteRetries  int           `env:"MAX_WRITE_RETRIES" envDefault:"5"`

	// OperatorKeyHash is a bcrypt hash of the key operator endpoints expect
	// in X-Operator-Key. Empty leaves those endpoints open.
	OperatorKeyHash string `env:"OPERATOR_KEY_HASH"`
}

// Load reads configuration from the environment, after applying a .env file
// from the working directory when one exists. Variables already set win over
// the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
