package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory weather.Cache.
// Rows never expire; freshness is the service's decision.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, 0)}
}

// Upsert replaces the reading stored under the city's key.
func (s *MemoryStore) Upsert(_ context.Context, r weather.Reading) error {
	s.items.Set(weather.CityKey(r.CityName), r, gocache.NoExpiration)
	return nil
}

// GetByCity returns the reading for city, matched case-insensitively.
func (s *MemoryStore) GetByCity(_ context.Context, city string) (weather.Reading, bool, error) {
	v, ok := s.items.Get(weather.CityKey(city))
	if !ok {
		return weather.Reading{}, false, nil
	}
	return v.(weather.Reading), true, nil
}

// GetMostRecent returns the reading with the latest ObservedAt.
func (s *MemoryStore) GetMostRecent(_ context.Context) (weather.Reading, bool, error) {
	var (
		latest weather.Reading
		found  bool
	)
	for _, item := range s.items.Items() {
		r := item.Object.(weather.Reading)
		if !found || r.ObservedAt.After(latest.ObservedAt) {
			latest, found = r, true
		}
	}
	return latest, found, nil
}

// Len reports the number of cached cities.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

func (s *MemoryStore) Close() error {
	s.items.Flush()
	return nil
}
