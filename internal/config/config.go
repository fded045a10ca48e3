package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheMemory = "memory"
)

// Location sources.
const (
	LocationStatic = "static"
	LocationIP     = "ip"
	LocationNone   = "none"
)

type AppConfig struct {
	Provider          string
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	HTTPTimeout time.Duration

	CacheBackend string
	CacheDBPath  string
	// CacheFreshness bounds the age of a cached reading served when the provider fails.
	CacheFreshness time.Duration

	// RefreshInterval controls how often tracked cities are re-fetched.
	RefreshInterval time.Duration
	TrackedCities   []string

	LocationSource string
	// StaticFix is nil when no coordinates are configured.
	StaticFix *location.Fix

	Port     string
	LogLevel string
	Env      string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds an AppConfig from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", providers.OpenWeather))
	switch cfg.Provider {
	case providers.OpenWeather, providers.WeatherAPI, providers.OpenMeteo:
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q", cfg.Provider)
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.CacheBackend = strings.ToLower(getenvDefault("CACHE_BACKEND", CacheSQLite))
	if cfg.CacheBackend != CacheSQLite && cfg.CacheBackend != CacheMemory {
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.CacheBackend)
	}
	cfg.CacheDBPath = getenvDefault("CACHE_DB_PATH", "weather_cache.db")
	if cfg.CacheFreshness, err = getenvDuration("CACHE_FRESHNESS", weather.DefaultFreshness.String()); err != nil {
		return nil, err
	}

	// Scheduler interval: default 15 minutes.
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	cfg.TrackedCities = common.SplitList(os.Getenv("WEATHER_TRACKED_CITIES"))

	cfg.LocationSource = strings.ToLower(getenvDefault("LOCATION_SOURCE", LocationStatic))
	switch cfg.LocationSource {
	case LocationStatic, LocationIP, LocationNone:
	default:
		return nil, fmt.Errorf("invalid LOCATION_SOURCE %q", cfg.LocationSource)
	}
	if cfg.StaticFix, err = loadStaticFix(); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Env = getenvDefault("APP_ENV", "development")

	return cfg, nil
}

func loadStaticFix() (*location.Fix, error) {
	latStr := os.Getenv("LOCATION_LATITUDE")
	lonStr := os.Getenv("LOCATION_LONGITUDE")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("LOCATION_LATITUDE and LOCATION_LONGITUDE must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid LOCATION_LATITUDE %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid LOCATION_LONGITUDE %q", lonStr)
	}
	return &location.Fix{Latitude: lat, Longitude: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
