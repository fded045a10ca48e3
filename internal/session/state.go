// Package session holds the lookup state machine shared by the presentation layers.
package session

import (
	"encoding/json"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// State is one of Initial, Loading, Success or Error.
type State interface {
	isState()
}

// Initial is the state before any lookup has produced data.
type Initial struct{}

// Loading means a fetch sequence is in flight.
type Loading struct{}

// Success carries the current conditions for one city and whatever forecast is known.
type Success struct {
	CityName    string                  `json:"cityName"`
	Temperature float64                 `json:"temperature"`
	Condition   string                  `json:"condition"`
	Description string                  `json:"description"`
	Humidity    int                     `json:"humidity"`
	Forecast    []weather.ForecastEntry `json:"forecast"`
}

// Error is a failed sequence with a human-readable message.
type Error struct {
	Kind    weather.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

func (Initial) isState() {}
func (Loading) isState() {}
func (Success) isState() {}
func (Error) isState()   {}

// State names used in JSON and metrics.
const (
	NameInitial = "initial"
	NameLoading = "loading"
	NameSuccess = "success"
	NameError   = "error"
)

// Name returns the discriminator for s.
func Name(s State) string {
	switch s.(type) {
	case Initial:
		return NameInitial
	case Loading:
		return NameLoading
	case Success:
		return NameSuccess
	case Error:
		return NameError
	default:
		return "unknown"
	}
}

func successFrom(r weather.Reading, forecast []weather.ForecastEntry) Success {
	if forecast == nil {
		forecast = []weather.ForecastEntry{}
	}
	return Success{
		CityName:    r.CityName,
		Temperature: r.Temperature,
		Condition:   r.Condition,
		Description: r.Description,
		Humidity:    r.Humidity,
		Forecast:    forecast,
	}
}

type tagged struct {
	State string `json:"state"`
}

func (Initial) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagged{State: NameInitial})
}

func (Loading) MarshalJSON() ([]byte, error) {
	return json.Marshal(tagged{State: NameLoading})
}

func (s Success) MarshalJSON() ([]byte, error) {
	type plain Success
	return json.Marshal(struct {
		tagged
		plain
	}{tagged{NameSuccess}, plain(s)})
}

func (e Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return json.Marshal(struct {
		tagged
		plain
	}{tagged{NameError}, plain(e)})
}
