package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-lookup/internal/session"
	"github.com/i474232898/weather-lookup/internal/weather"
)

func TestStringSimpleStates(t *testing.T) {
	assert.Equal(t, PromptText+"\n", String(session.Initial{}))
	assert.Equal(t, LoadingText+"\n", String(session.Loading{}))
	assert.Equal(t, "Unable to get location. Please enable GPS\n",
		String(session.Error{Kind: weather.KindLocation, Message: "Unable to get location. Please enable GPS"}))
}

func TestStringSuccessWithoutForecast(t *testing.T) {
	got := String(session.Success{
		CityName:    "Paris",
		Temperature: 18.9,
		Condition:   "Clear",
		Description: "clear sky",
		Humidity:    40,
	})

	want := "Paris\n-----\n18°C\nClear\nClear Sky\nHumidity: 40%\n"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "5-Day Forecast")
}

func TestStringSuccessWithForecast(t *testing.T) {
	got := String(session.Success{
		CityName:    "Rome",
		Temperature: -0.5,
		Condition:   "Snow",
		Description: "light snow",
		Humidity:    90,
		Forecast:    threeHourly(16),
	})

	lines := strings.Split(strings.TrimSpace(got), "\n")
	assert.Equal(t, "0°C", lines[2])
	assert.Contains(t, got, "5-Day Forecast\n")
	assert.Equal(t, "2024-05-01  Light Snow                   0°C", lines[len(lines)-2])
	assert.Equal(t, "2024-05-02  Light Snow                  24°C", lines[len(lines)-1])
}

func TestDailyForecast(t *testing.T) {
	tests := []struct {
		name    string
		entries int
		want    []int
	}{
		{"empty", 0, nil},
		{"partial day", 3, []int{0}},
		{"two days", 16, []int{0, 8}},
		{"five days", 40, []int{0, 8, 16, 24, 32}},
		{"extra entries ignored", 45, []int{0, 8, 16, 24, 32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyForecast(threeHourly(tt.entries))
			temps := make([]int, 0, len(got))
			for _, e := range got {
				temps = append(temps, int(e.Temperature)/3)
			}
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, temps)
		})
	}
}

func TestDayTruncatesTimestamp(t *testing.T) {
	assert.Equal(t, "2024-05-01", day("2024-05-01 12:00:00"))
	assert.Equal(t, "short", day("short"))
}

// threeHourly returns n entries 3 hours apart; entry i has temperature 3*i.
func threeHourly(n int) []weather.ForecastEntry {
	entries := make([]weather.ForecastEntry, 0, n)
	for i := 0; i < n; i++ {
		h := i * 3
		entries = append(entries, weather.ForecastEntry{
			Timestamp:   fmt.Sprintf("2024-05-%02d %02d:00:00", 1+h/24, h%24),
			Temperature: float64(h),
			Description: "light snow",
		})
	}
	return entries
}
