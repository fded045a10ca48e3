package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

type stubGeocoder struct {
	lat, lon float64
	name     string
	err      error
}

func (g stubGeocoder) Forward(context.Context, string) (float64, float64, error) {
	return g.lat, g.lon, g.err
}

func (g stubGeocoder) Reverse(context.Context, float64, float64) (string, error) {
	return g.name, g.err
}

func newOpenMeteoTestServer(t *testing.T, geo Geocoder, handler http.HandlerFunc) *OpenMeteoProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewOpenMeteoProvider(srv.Client(), geo).WithBaseURL(srv.URL + "/v1/forecast")
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestOpenMeteoFetchCurrent(t *testing.T) {
	geo := stubGeocoder{lat: 59.91, lon: 10.75}
	p := newOpenMeteoTestServer(t, geo, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "59.91", r.URL.Query().Get("latitude"))
		assert.Equal(t, "10.75", r.URL.Query().Get("longitude"))
		_, _ = w.Write([]byte(`{"current":{"time":"2024-05-01T12:00","temperature_2m":9.4,"relative_humidity_2m":71,"weather_code":61}}`))
	})

	got, err := p.FetchCurrent(context.Background(), " Oslo ")
	require.NoError(t, err)
	assert.Equal(t, weather.Reading{
		CityName:    "Oslo",
		Temperature: 9.4,
		Condition:   weather.ConditionRain,
		Description: "slight rain",
		Humidity:    71,
		ObservedAt:  fixedNow,
	}, got)
}

func TestOpenMeteoFetchByCoordinatesUsesReverseGeocoding(t *testing.T) {
	geo := stubGeocoder{name: "Paris"}
	p := newOpenMeteoTestServer(t, geo, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":18.5,"relative_humidity_2m":40,"weather_code":0}}`))
	})

	got, err := p.FetchByCoordinates(context.Background(), 48.85, 2.35)
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.CityName)
	assert.Equal(t, weather.ConditionClear, got.Condition)
	assert.Equal(t, "clear sky", got.Description)
}

func TestOpenMeteoGeocodingFailureSkipsWeatherCall(t *testing.T) {
	called := false
	geo := stubGeocoder{err: fmt.Errorf("%w: ZERO_RESULTS", weather.ErrNotFound)}
	p := newOpenMeteoTestServer(t, geo, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := p.FetchCurrent(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrNotFound)
	assert.False(t, called)
}

func TestOpenMeteoMissingWeatherCode(t *testing.T) {
	p := newOpenMeteoTestServer(t, stubGeocoder{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":18.5}}`))
	})

	_, err := p.FetchCurrent(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrParse)
}

func TestOpenMeteoFetchForecast(t *testing.T) {
	p := newOpenMeteoTestServer(t, stubGeocoder{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("forecast_days"))

		times := make([]string, 0, 6)
		temps := make([]string, 0, 6)
		codes := make([]string, 0, 6)
		for h := 0; h < 6; h++ {
			times = append(times, fmt.Sprintf(`"2024-05-01T%02d:00"`, h))
			temps = append(temps, fmt.Sprintf("%d.5", h))
			codes = append(codes, "3")
		}
		_, _ = fmt.Fprintf(w, `{"hourly":{"time":[%s],"temperature_2m":[%s],"weather_code":[%s]}}`,
			strings.Join(times, ","), strings.Join(temps, ","), strings.Join(codes, ","))
	})

	got, err := p.FetchForecast(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, []weather.ForecastEntry{
		{Timestamp: "2024-05-01 00:00:00", Temperature: 0.5, Description: "overcast"},
		{Timestamp: "2024-05-01 03:00:00", Temperature: 3.5, Description: "overcast"},
	}, got)
}

func TestOpenMeteoForecastMismatchedSeries(t *testing.T) {
	p := newOpenMeteoTestServer(t, stubGeocoder{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"time":["2024-05-01T00:00"],"temperature_2m":[],"weather_code":[0]}}`))
	})

	_, err := p.FetchForecast(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrParse)
}

func TestMapOpenMeteoCondition(t *testing.T) {
	cond, desc := mapOpenMeteoCondition(95)
	assert.Equal(t, weather.ConditionThunderstorm, cond)
	assert.Equal(t, "thunderstorm", desc)

	cond, desc = mapOpenMeteoCondition(42)
	assert.Equal(t, weather.ConditionUnknown, cond)
	assert.Equal(t, "unknown", desc)
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{OpenWeather, WeatherAPI, OpenMeteo} {
		p, err := New(name, http.DefaultClient, Keys{})
		require.NoError(t, err, name)
		assert.NotEmpty(t, p.Name())
	}

	_, err := New("darksky", http.DefaultClient, Keys{})
	assert.Error(t, err)
}
