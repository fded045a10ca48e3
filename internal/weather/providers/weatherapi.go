package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		httpCfg: HTTPClientConfig{Client: client},
		circuit: newCircuitBreaker("weatherapi"),
		now:     time.Now,
	}
}

// WithBaseURL points the provider at another host; used by tests.
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

type weatherAPICurrentPayload struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Current struct {
		TempC     float64             `json:"temp_c"`
		Humidity  int                 `json:"humidity"`
		Condition weatherAPICondition `json:"condition"`
	} `json:"current"`
}

type weatherAPIForecastPayload struct {
	Forecast struct {
		ForecastDay []struct {
			Hour []struct {
				Time      string              `json:"time"`
				TempC     float64             `json:"temp_c"`
				Condition weatherAPICondition `json:"condition"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, city string) (weather.Reading, error) {
	return p.fetchCurrent(ctx, "current", city)
}

// FetchByCoordinates uses WeatherAPI's "lat,lon" query form.
func (p *WeatherAPIProvider) FetchByCoordinates(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	return p.fetchCurrent(ctx, "by_coordinates", fmt.Sprintf("%f,%f", lat, lon))
}

// FetchForecast requests five days of hourly data and keeps every third hour
// so the cadence matches the other providers.
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, city string) ([]weather.ForecastEntry, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrNetwork)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("days", "5")

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, "forecast", p.requestBuilder("forecast.json", values))
	if err != nil {
		return nil, err
	}

	var payload weatherAPIForecastPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}

	var entries []weather.ForecastEntry
	for _, day := range payload.Forecast.ForecastDay {
		for _, hour := range day.Hour {
			ts, err := time.Parse("2006-01-02 15:04", hour.Time)
			if err != nil {
				return nil, fmt.Errorf("%w: forecast time %q: %v", weather.ErrParse, hour.Time, err)
			}
			if ts.Hour()%3 != 0 {
				continue
			}
			entries = append(entries, weather.ForecastEntry{
				Timestamp:   ts.Format("2006-01-02 15:04:05"),
				Temperature: hour.TempC,
				Description: strings.ToLower(strings.TrimSpace(hour.Condition.Text)),
			})
		}
	}
	if entries == nil {
		entries = []weather.ForecastEntry{}
	}
	return entries, nil
}

func (p *WeatherAPIProvider) fetchCurrent(ctx context.Context, endpoint, q string) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrNetwork)
	}

	values := url.Values{}
	values.Set("q", q)

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, endpoint, p.requestBuilder("current.json", values))
	if err != nil {
		return weather.Reading{}, err
	}

	var payload weatherAPICurrentPayload
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.Reading{}, err
	}

	text := strings.TrimSpace(payload.Current.Condition.Text)
	if text == "" {
		return weather.Reading{}, fmt.Errorf("%w: response has no weather condition", weather.ErrParse)
	}
	if payload.Location.Name == "" {
		return weather.Reading{}, fmt.Errorf("%w: response has no location name", weather.ErrParse)
	}

	return weather.Reading{
		CityName:    payload.Location.Name,
		Temperature: payload.Current.TempC,
		Condition:   mapWeatherAPICondition(text),
		Description: strings.ToLower(text),
		Humidity:    payload.Current.Humidity,
		ObservedAt:  p.now(),
	}, nil
}

func (p *WeatherAPIProvider) requestBuilder(path string, values url.Values) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("key", p.apiKey)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, path, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}
}

// mapWeatherAPICondition derives an OpenWeatherMap-style category from
// WeatherAPI's free-text condition.
func mapWeatherAPICondition(text string) string {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return weather.ConditionThunderstorm
	case common.HasAny(t, "drizzle"):
		return weather.ConditionDrizzle
	case common.HasAny(t, "rain", "shower"):
		return weather.ConditionRain
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(t, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return weather.ConditionClouds
	case common.HasAny(t, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
