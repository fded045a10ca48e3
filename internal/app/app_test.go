package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/session"
	"github.com/i474232898/weather-lookup/internal/store"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Provider:        "openmeteo",
		HTTPTimeout:     time.Second,
		CacheBackend:    config.CacheMemory,
		CacheFreshness:  time.Hour,
		RefreshInterval: time.Minute,
		LocationSource:  config.LocationNone,
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewMemoryBackend(t *testing.T) {
	a, err := New(testConfig(), discard)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.MemoryStore{}, a.Cache)
	assert.Equal(t, "openmeteo", a.Provider.Name())
	assert.IsType(t, location.Denied{}, a.Locator)
	assert.Equal(t, session.Initial{}, a.Machine.State())
}

func TestNewSQLiteBackend(t *testing.T) {
	cfg := testConfig()
	cfg.CacheBackend = config.CacheSQLite
	cfg.CacheDBPath = filepath.Join(t.TempDir(), "cache.db")

	a, err := New(cfg, discard)
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, a.Cache)
	assert.NoError(t, a.Close())
}

func TestNewLocatorSources(t *testing.T) {
	cfg := testConfig()

	cfg.LocationSource = config.LocationIP
	assert.IsType(t, &location.IPProvider{}, newLocator(cfg, nil))

	cfg.LocationSource = config.LocationStatic
	assert.IsType(t, location.Static{}, newLocator(cfg, nil))
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "darksky"

	_, err := New(cfg, discard)
	assert.Error(t, err)
}

func TestStartRunsColdStart(t *testing.T) {
	a, err := New(testConfig(), discard)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Start())
	a.Machine.Wait()

	// Empty cache and no location source end in the location error.
	_, failed := a.Machine.State().(session.Error)
	assert.True(t, failed)
}

func TestStartFailureReleasesCache(t *testing.T) {
	cfg := testConfig()
	cfg.CacheBackend = config.CacheSQLite
	cfg.CacheDBPath = filepath.Join(t.TempDir(), "cache.db")
	cfg.TrackedCities = []string{"Paris"}
	cfg.RefreshInterval = 0

	a, err := New(cfg, discard)
	require.NoError(t, err)

	require.Error(t, a.Start())

	_, _, err = a.Cache.GetMostRecent(context.Background())
	assert.Error(t, err, "cache should be closed")
	assert.Equal(t, session.Initial{}, a.Machine.State())
}
