// Package render draws session states as plain text for terminals and the
// text format of the HTTP API.
package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-lookup/internal/session"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const (
	PromptText  = "Search for a city or use your current location"
	LoadingText = "Loading..."

	// Forecasts arrive in 3-hour steps: 8 entries per day, 5 days.
	entriesPerDay = 8
	forecastDays  = 5
)

// State writes s to w.
func State(w io.Writer, s session.State) error {
	switch st := s.(type) {
	case session.Initial:
		_, err := fmt.Fprintln(w, PromptText)
		return err
	case session.Loading:
		_, err := fmt.Fprintln(w, LoadingText)
		return err
	case session.Success:
		return success(w, st)
	case session.Error:
		_, err := fmt.Fprintln(w, st.Message)
		return err
	default:
		return fmt.Errorf("render: unknown state %T", s)
	}
}

// String renders s into a string.
func String(s session.State) string {
	var b strings.Builder
	_ = State(&b, s)
	return b.String()
}

func success(w io.Writer, s session.Success) error {
	title := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintln(&b, s.CityName)
	fmt.Fprintln(&b, strings.Repeat("-", len([]rune(s.CityName))))
	fmt.Fprintf(&b, "%d°C\n", int(s.Temperature))
	fmt.Fprintln(&b, s.Condition)
	fmt.Fprintln(&b, title.String(s.Description))
	fmt.Fprintf(&b, "Humidity: %d%%\n", s.Humidity)

	days := DailyForecast(s.Forecast)
	if len(days) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "5-Day Forecast")
		for _, d := range days {
			fmt.Fprintf(&b, "%s  %-25s %4d°C\n", day(d.Timestamp), title.String(d.Description), int(d.Temperature))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// DailyForecast picks one entry per day: the first of every 8 entries among
// the first 40, at most 5 days.
func DailyForecast(entries []weather.ForecastEntry) []weather.ForecastEntry {
	if len(entries) > entriesPerDay*forecastDays {
		entries = entries[:entriesPerDay*forecastDays]
	}
	out := make([]weather.ForecastEntry, 0, forecastDays)
	for i := 0; i < len(entries); i += entriesPerDay {
		out = append(out, entries[i])
	}
	return out
}

func day(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}
