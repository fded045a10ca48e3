package weather

import (
	"strings"
	"time"
)

// Condition categories as reported by OpenWeatherMap's "main" field.
// Providers with a different vocabulary map onto these.
const (
	ConditionClear        = "Clear"
	ConditionClouds       = "Clouds"
	ConditionRain         = "Rain"
	ConditionDrizzle      = "Drizzle"
	ConditionSnow         = "Snow"
	ConditionThunderstorm = "Thunderstorm"
	ConditionMist         = "Mist"
	ConditionUnknown      = "Unknown"
)

// Reading is a single current-conditions observation for a city.
// It is both the domain value returned to callers and the cache row.
type Reading struct {
	CityName    string    `json:"cityName"`
	Temperature float64   `json:"temperature"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidity"`
	ObservedAt  time.Time `json:"observedAt"`
}

// ForecastEntry is one time step of a provider forecast.
// Timestamp keeps the provider's "2006-01-02 15:04:05" text.
type ForecastEntry struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
}

// CityKey returns the canonical key used to index a city in caches.
// City names compare case-insensitively.
func CityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
