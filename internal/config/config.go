package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// OpenWeatherAPIKey authenticates against the weather provider. Required.
	OpenWeatherAPIKey string

	// GeocoderAPIKey selects Google geocoding when set; empty means the
	// keyless Nominatim backend.
	GeocoderAPIKey string

	// DatabaseURL is the Postgres DSN for search history. Empty selects the
	// in-memory store (development only).
	DatabaseURL string

	// MigrationsDir, when set together with DatabaseURL, is applied at boot.
	MigrationsDir string

	// RedisURL selects the Redis weather cache; empty means in-memory.
	RedisURL string

	// CacheTTL is the weather freshness window per region key.
	CacheTTL time.Duration

	// RefreshInterval controls the scheduled history refresh; zero disables
	// it, leaving only the manual trigger endpoint.
	RefreshInterval time.Duration

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is required")
	}

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.MigrationsDir = os.Getenv("MIGRATIONS_DIR")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	ttl, err := getenvDuration("CACHE_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = ttl

	refresh, err := getenvDuration("REFRESH_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	cfg.RefreshInterval = refresh

	timeout, err := getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
