package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5",
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("openweather"),
		now:     time.Now,
	}
}

// WithBaseURL points the provider at another host; used by tests.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCurrentPayload struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

type owmForecastPayload struct {
	List []struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		DateText string `json:"dt_txt"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, city string) (weather.Reading, error) {
	values := url.Values{}
	values.Set("q", city)
	return p.fetchCurrent(ctx, "current", values)
}

func (p *OpenWeatherProvider) FetchByCoordinates(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return p.fetchCurrent(ctx, "by_coordinates", values)
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, city string) ([]weather.ForecastEntry, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openweather api key is not configured", weather.ErrNetwork)
	}

	values := url.Values{}
	values.Set("q", city)

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, "forecast", p.requestBuilder("forecast", values))
	if err != nil {
		return nil, err
	}

	var payload owmForecastPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}

	entries := make([]weather.ForecastEntry, 0, len(payload.List))
	for _, item := range payload.List {
		entry := weather.ForecastEntry{
			Timestamp:   item.DateText,
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			entry.Description = item.Weather[0].Description
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (p *OpenWeatherProvider) fetchCurrent(ctx context.Context, endpoint string, values url.Values) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrNetwork)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, endpoint, p.requestBuilder("weather", values))
	if err != nil {
		return weather.Reading{}, err
	}

	var payload owmCurrentPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.Reading{}, err
	}

	if len(payload.Weather) == 0 {
		return weather.Reading{}, fmt.Errorf("%w: response has no weather conditions", weather.ErrParse)
	}
	if payload.Name == "" {
		return weather.Reading{}, fmt.Errorf("%w: response has no location name", weather.ErrParse)
	}

	return weather.Reading{
		CityName:    payload.Name,
		Temperature: payload.Main.Temp,
		Condition:   payload.Weather[0].Main,
		Description: payload.Weather[0].Description,
		Humidity:    payload.Main.Humidity,
		ObservedAt:  p.now(),
	}, nil
}

func (p *OpenWeatherProvider) requestBuilder(path string, values url.Values) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)
		q.Set("units", "metric")

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, path, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}
}
