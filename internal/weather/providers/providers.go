package providers

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Names accepted by New.
const (
	OpenWeather = "openweather"
	WeatherAPI  = "weatherapi"
	OpenMeteo   = "openmeteo"
)

// Keys carries the credentials of every supported provider.
type Keys struct {
	OpenWeather string
	WeatherAPI  string
	Geocoder    string
}

// New builds the named provider on top of a shared HTTP client.
func New(name string, client *http.Client, keys Keys) (weather.Provider, error) {
	switch name {
	case OpenWeather:
		return NewOpenWeatherProvider(client, keys.OpenWeather), nil
	case WeatherAPI:
		return NewWeatherAPIProvider(client, keys.WeatherAPI), nil
	case OpenMeteo:
		// Open-Meteo itself is keyless, but city lookups need Google geocoding.
		return NewOpenMeteoProvider(client, NewGoogleGeocoder(keys.Geocoder)), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", name)
	}
}
