// Package app wires configuration into the running components.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/session"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
)

// App holds the long-lived components of one process.
type App struct {
	Config    *config.AppConfig
	Logger    *slog.Logger
	Cache     weather.Cache
	Provider  weather.Provider
	Service   *weather.Service
	Locator   location.Provider
	Machine   *session.Machine
	Scheduler *scheduler.Scheduler
}

// New builds every component from cfg. The scheduler is created but not started.
func New(cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	provider, err := providers.New(cfg.Provider, httpClient, providers.Keys{
		OpenWeather: cfg.OpenWeatherAPIKey,
		WeatherAPI:  cfg.WeatherAPIKey,
		Geocoder:    cfg.GeocoderAPIKey,
	})
	if err != nil {
		return nil, err
	}

	cache, err := newCache(cfg)
	if err != nil {
		return nil, err
	}

	service := weather.NewService(cache, provider, cfg.CacheFreshness, logger)
	locator := newLocator(cfg, httpClient)

	logger.Info("components ready",
		slog.String("provider", provider.Name()),
		slog.String("cache", cfg.CacheBackend),
		slog.String("location", cfg.LocationSource))

	return &App{
		Config:    cfg,
		Logger:    logger,
		Cache:     cache,
		Provider:  provider,
		Service:   service,
		Locator:   locator,
		Machine:   session.NewMachine(service, locator, logger),
		Scheduler: scheduler.New(cfg.TrackedCities, cfg.RefreshInterval, service, logger),
	}, nil
}

func newCache(cfg *config.AppConfig) (weather.Cache, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return store.NewMemoryStore(), nil
	case config.CacheSQLite, "":
		s, err := store.NewSQLiteStore(cfg.CacheDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func newLocator(cfg *config.AppConfig, client *http.Client) location.Provider {
	switch cfg.LocationSource {
	case config.LocationIP:
		return location.NewIPProvider(client)
	case config.LocationNone:
		return location.Denied{}
	default:
		return location.NewStatic(cfg.StaticFix)
	}
}

// Start launches the cache warmer and then the session's cold start. If the
// warmer cannot be scheduled everything built by New is released before the
// error is returned, so callers must not Close again.
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		if cerr := a.Close(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	a.Machine.Start()
	return nil
}

// Close stops background work and releases the cache.
func (a *App) Close() error {
	a.Scheduler.Stop()
	a.Machine.Close()
	if err := a.Cache.Close(); err != nil {
		return errors.Join(errors.New("failed to close cache"), err)
	}
	return nil
}
