package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/location"
)

var configKeys = []string{
	"WEATHER_PROVIDER", "OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "GEOCODER_API_KEY",
	"HTTP_TIMEOUT", "CACHE_BACKEND", "CACHE_DB_PATH", "CACHE_FRESHNESS",
	"REFRESH_INTERVAL", "WEATHER_TRACKED_CITIES", "LOCATION_SOURCE",
	"LOCATION_LATITUDE", "LOCATION_LONGITUDE", "PORT", "LOG_LEVEL", "APP_ENV",
}

// clearEnv blanks every variable FromEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "openweather", cfg.Provider)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, CacheSQLite, cfg.CacheBackend)
	assert.Equal(t, "weather_cache.db", cfg.CacheDBPath)
	assert.Equal(t, time.Hour, cfg.CacheFreshness)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Empty(t, cfg.TrackedCities)
	assert.Equal(t, LocationStatic, cfg.LocationSource)
	assert.Nil(t, cfg.StaticFix)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Env)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_PROVIDER", "OpenMeteo")
	t.Setenv("GEOCODER_API_KEY", "geo")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("CACHE_FRESHNESS", "30m")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("WEATHER_TRACKED_CITIES", " Paris, ,Rome ")
	t.Setenv("LOCATION_SOURCE", "ip")
	t.Setenv("LOCATION_LATITUDE", "48.85")
	t.Setenv("LOCATION_LONGITUDE", "2.35")
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "openmeteo", cfg.Provider)
	assert.Equal(t, "geo", cfg.GeocoderAPIKey)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, 30*time.Minute, cfg.CacheFreshness)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, []string{"Paris", "Rome"}, cfg.TrackedCities)
	assert.Equal(t, LocationIP, cfg.LocationSource)
	assert.Equal(t, &location.Fix{Latitude: 48.85, Longitude: 2.35}, cfg.StaticFix)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
}

func TestFromEnvErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown provider":    {"WEATHER_PROVIDER": "darksky"},
		"bad timeout":         {"HTTP_TIMEOUT": "soon"},
		"negative freshness":  {"CACHE_FRESHNESS": "-1h"},
		"bad interval":        {"REFRESH_INTERVAL": "15"},
		"unknown backend":     {"CACHE_BACKEND": "redis"},
		"unknown location":    {"LOCATION_SOURCE": "gps"},
		"half coordinates":    {"LOCATION_LATITUDE": "48.85"},
		"latitude range":      {"LOCATION_LATITUDE": "91", "LOCATION_LONGITUDE": "0"},
		"longitude not float": {"LOCATION_LATITUDE": "0", "LOCATION_LONGITUDE": "east"},
		"bad port":            {"PORT": "http"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
