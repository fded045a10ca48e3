package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/i474232898/weather-lookup/internal/metrics"
)

// DefaultFreshness bounds how old a cached reading may be when it stands in
// for a failed live call.
const DefaultFreshness = time.Hour

// Service orchestrates provider calls and the local reading cache.
type Service struct {
	cache     Cache
	provider  Provider
	freshness time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new Service. A non-positive freshness falls back to DefaultFreshness.
func NewService(cache Cache, provider Provider, freshness time.Duration, logger *slog.Logger) *Service {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Service{
		cache:     cache,
		provider:  provider,
		freshness: freshness,
		logger:    logger,
		now:       time.Now,
	}
}

// GetCurrentWeather fetches live conditions for city and caches them.
// If the provider fails, a cached reading for the same city younger than the
// freshness window is returned instead; otherwise the provider error is
// returned unchanged.
func (s *Service) GetCurrentWeather(ctx context.Context, city string) (Reading, error) {
	reading, err := s.provider.FetchCurrent(ctx, city)
	if err == nil {
		if cerr := s.cache.Upsert(ctx, reading); cerr != nil {
			s.logger.ErrorContext(ctx, "failed to cache reading",
				slog.String("city", reading.CityName), slog.Any("error", cerr))
		}
		metrics.RecordFetch("current", metrics.OutcomeLive)
		return reading, nil
	}

	s.logger.WarnContext(ctx, "provider fetch failed, trying cache",
		slog.String("provider", s.provider.Name()),
		slog.String("city", city),
		slog.Any("error", err))

	cached, ok, cerr := s.cache.GetByCity(ctx, city)
	if cerr != nil {
		s.logger.ErrorContext(ctx, "cache lookup failed", slog.String("city", city), slog.Any("error", cerr))
	}
	if ok && s.now().Sub(cached.ObservedAt) < s.freshness {
		s.logger.InfoContext(ctx, "serving cached reading",
			slog.String("city", cached.CityName),
			slog.Duration("age", s.now().Sub(cached.ObservedAt)))
		metrics.RecordFetch("current", metrics.OutcomeCacheFallback)
		return cached, nil
	}

	metrics.RecordFetch("current", metrics.OutcomeError)
	return Reading{}, err
}

// GetWeatherByLocation resolves current conditions for a coordinate pair.
// It neither reads nor writes the cache.
func (s *Service) GetWeatherByLocation(ctx context.Context, lat, lon float64) (Reading, error) {
	reading, err := s.provider.FetchByCoordinates(ctx, lat, lon)
	if err != nil {
		metrics.RecordFetch("by_location", metrics.OutcomeError)
		return Reading{}, err
	}
	metrics.RecordFetch("by_location", metrics.OutcomeLive)
	return reading, nil
}

// GetForecast delegates to the provider; forecasts are never cached.
func (s *Service) GetForecast(ctx context.Context, city string) ([]ForecastEntry, error) {
	entries, err := s.provider.FetchForecast(ctx, city)
	if err != nil {
		metrics.RecordFetch("forecast", metrics.OutcomeError)
		return nil, err
	}
	metrics.RecordFetch("forecast", metrics.OutcomeLive)
	return entries, nil
}

// GetLastCachedWeather returns the most recently observed cached reading, if any.
func (s *Service) GetLastCachedWeather(ctx context.Context) (Reading, bool) {
	reading, ok, err := s.cache.GetMostRecent(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load last cached reading", slog.Any("error", err))
		return Reading{}, false
	}
	return reading, ok
}
