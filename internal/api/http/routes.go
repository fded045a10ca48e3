package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/render"
	"github.com/i474232898/weather-lookup/internal/session"
	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = validator.New()

// Session is the state machine driven by the HTTP presentation layer.
type Session interface {
	State() session.State
	SearchCity(name string)
	UseCurrentLocation()
	UseLocation(locator location.Provider)
	Subscribe() (<-chan session.State, func())
}

const (
	defaultWait = 5 * time.Second
	// Stays below the server's write timeout.
	maxWait = 8 * time.Second
)

// LastReadingSource exposes the most recently cached reading.
type LastReadingSource interface {
	GetLastCachedWeather(ctx context.Context) (weather.Reading, bool)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, machine Session, cache LastReadingSource) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		state := machine.State()
		if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
			timeout, err := waitTimeout(c.Query("timeout"))
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			state = awaitSettled(c.UserContext(), machine, timeout)
		}
		if strings.EqualFold(c.Query("format"), "text") {
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.SendString(render.String(state))
		}
		return c.JSON(state)
	})

	v1.Post("/weather/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		machine.SearchCity(req.City)
		return c.Status(fiber.StatusAccepted).JSON(machine.State())
	})

	v1.Post("/weather/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}

		fix, err := req.fix()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if fix == nil {
			machine.UseCurrentLocation()
		} else {
			machine.UseLocation(location.NewStatic(fix))
		}
		return c.Status(fiber.StatusAccepted).JSON(machine.State())
	})

	v1.Get("/cache/last", func(c *fiber.Ctx) error {
		reading, ok := cache.GetLastCachedWeather(c.UserContext())
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no cached weather")
		}
		return c.JSON(reading)
	})
}

func waitTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return defaultWait, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("timeout must be a positive duration such as 2s")
	}
	return min(d, maxWait), nil
}

// awaitSettled blocks while the machine is loading and returns the first
// settled state, or the current one once timeout or ctx expire.
func awaitSettled(ctx context.Context, machine Session, timeout time.Duration) session.State {
	updates, unsubscribe := machine.Subscribe()
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Read after subscribing so a transition in between is not missed.
	state := machine.State()
	for {
		if _, loading := state.(session.Loading); !loading {
			return state
		}
		select {
		case next, ok := <-updates:
			if !ok {
				return machine.State()
			}
			state = next
		case <-timer.C:
			return state
		case <-ctx.Done():
			return state
		}
	}
}

type searchRequest struct {
	City string `json:"city" validate:"max=100"`
}

// locationRequest holds an optional explicit position; both fields or neither.
type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r locationRequest) fix() (*location.Fix, error) {
	if r.Latitude == nil && r.Longitude == nil {
		return nil, nil
	}
	if r.Latitude == nil || r.Longitude == nil {
		return nil, errors.New("latitude and longitude must be provided together")
	}

	fix := location.Fix{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if err := validate.Struct(fix); err != nil {
		return nil, err
	}
	return &fix, nil
}
