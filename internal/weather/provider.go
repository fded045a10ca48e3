package weather

import (
	"context"
)

// Provider abstracts a remote weather API (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
// Each call is a single network attempt; no caching or fallback happens here.
type Provider interface {
	Name() string
	FetchCurrent(ctx context.Context, city string) (Reading, error)
	FetchByCoordinates(ctx context.Context, lat, lon float64) (Reading, error)
	// FetchForecast returns an empty slice, not an error, when the provider has no entries.
	FetchForecast(ctx context.Context, city string) ([]ForecastEntry, error)
}

// Cache is the contract the local reading store must satisfy.
// A miss is reported through the bool result, never as an error.
type Cache interface {
	Upsert(ctx context.Context, r Reading) error
	GetByCity(ctx context.Context, city string) (Reading, bool, error)
	GetMostRecent(ctx context.Context) (Reading, bool, error)
	Close() error
}
