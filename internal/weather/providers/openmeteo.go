package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Geocoder resolves city names to coordinates and back.
type Geocoder interface {
	Forward(ctx context.Context, city string) (lat, lon float64, err error)
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// GoogleGeocoder implements Geocoder with the Google Geocoding API.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the package-level key used by kelvins/geocoder.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Forward(ctx context.Context, city string) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}
	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		return 0, 0, classifyGeocoderError(err)
	}
	return loc.Latitude, loc.Longitude, nil
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return "", classifyGeocoderError(err)
	}
	for _, a := range addresses {
		if a.City != "" {
			return a.City, nil
		}
	}
	return "", fmt.Errorf("%w: no city at %f,%f", weather.ErrNotFound, lat, lon)
}

func classifyGeocoderError(err error) error {
	if common.HasAny(err.Error(), "ZERO_RESULTS", "INVALID_REQUEST") {
		return fmt.Errorf("%w: %v", weather.ErrNotFound, err)
	}
	return fmt.Errorf("%w: geocoding: %v", weather.ErrNetwork, err)
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// Open-Meteo only accepts coordinates, so city lookups go through a Geocoder.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	geocoder Geocoder
	now      func() time.Time
}

func NewOpenMeteoProvider(client *http.Client, geo Geocoder) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		httpCfg:  HTTPClientConfig{Client: client},
		circuit:  newCircuitBreaker("openmeteo"),
		geocoder: geo,
		now:      time.Now,
	}
}

// WithBaseURL points the provider at another host; used by tests.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    int     `json:"relative_humidity_2m"`
		WeatherCode *int    `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, city string) (weather.Reading, error) {
	lat, lon, err := p.geocoder.Forward(ctx, city)
	if err != nil {
		return weather.Reading{}, err
	}
	return p.fetchCurrent(ctx, "current", strings.TrimSpace(city), lat, lon)
}

func (p *OpenMeteoProvider) FetchByCoordinates(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	name, err := p.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return weather.Reading{}, err
	}
	return p.fetchCurrent(ctx, "by_coordinates", name, lat, lon)
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, city string) ([]weather.ForecastEntry, error) {
	lat, lon, err := p.geocoder.Forward(ctx, city)
	if err != nil {
		return nil, err
	}

	values := p.coordinates(lat, lon)
	values.Set("hourly", "temperature_2m,weather_code")
	values.Set("forecast_days", "5")

	var payload openMeteoPayload
	if err := p.get(ctx, "forecast", values, &payload); err != nil {
		return nil, err
	}

	h := payload.Hourly
	if len(h.Temperature) != len(h.Time) || len(h.WeatherCode) != len(h.Time) {
		return nil, fmt.Errorf("%w: hourly series have different lengths", weather.ErrParse)
	}

	entries := make([]weather.ForecastEntry, 0, len(h.Time)/3)
	for i, raw := range h.Time {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			return nil, fmt.Errorf("%w: forecast time %q: %v", weather.ErrParse, raw, err)
		}
		if ts.Hour()%3 != 0 {
			continue
		}
		_, desc := mapOpenMeteoCondition(h.WeatherCode[i])
		entries = append(entries, weather.ForecastEntry{
			Timestamp:   ts.Format("2006-01-02 15:04:05"),
			Temperature: h.Temperature[i],
			Description: desc,
		})
	}
	return entries, nil
}

func (p *OpenMeteoProvider) fetchCurrent(ctx context.Context, endpoint, name string, lat, lon float64) (weather.Reading, error) {
	if name == "" {
		return weather.Reading{}, fmt.Errorf("%w: no location name resolved", weather.ErrParse)
	}

	values := p.coordinates(lat, lon)
	values.Set("current", "temperature_2m,relative_humidity_2m,weather_code")

	var payload openMeteoPayload
	if err := p.get(ctx, endpoint, values, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Current.WeatherCode == nil {
		return weather.Reading{}, fmt.Errorf("%w: response has no weather code", weather.ErrParse)
	}

	cond, desc := mapOpenMeteoCondition(*payload.Current.WeatherCode)
	return weather.Reading{
		CityName:    name,
		Temperature: payload.Current.Temperature,
		Condition:   cond,
		Description: desc,
		Humidity:    payload.Current.Humidity,
		ObservedAt:  p.now(),
	}, nil
}

func (p *OpenMeteoProvider) coordinates(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("timezone", "auto")
	return values
}

func (p *OpenMeteoProvider) get(ctx context.Context, endpoint string, values url.Values, target interface{}) error {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, endpoint, buildRequest)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target)
}

// WMO weather interpretation codes (https://open-meteo.com/en/docs).
var wmoDescriptions = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow",
	73: "moderate snow",
	75: "heavy snow",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// mapOpenMeteoCondition returns the category and description for a WMO code.
func mapOpenMeteoCondition(code int) (string, string) {
	desc, ok := wmoDescriptions[code]
	if !ok {
		desc = "unknown"
	}

	switch {
	case code == 0 || code == 1:
		return weather.ConditionClear, desc
	case code == 2 || code == 3:
		return weather.ConditionClouds, desc
	case code == 45 || code == 48:
		return weather.ConditionMist, desc
	case code >= 51 && code <= 57:
		return weather.ConditionDrizzle, desc
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain, desc
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow, desc
	case code >= 95:
		return weather.ConditionThunderstorm, desc
	default:
		return weather.ConditionUnknown, desc
	}
}
