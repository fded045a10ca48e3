package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/metrics"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Fetcher is the part of weather.Service the machine drives.
type Fetcher interface {
	GetCurrentWeather(ctx context.Context, city string) (weather.Reading, error)
	GetWeatherByLocation(ctx context.Context, lat, lon float64) (weather.Reading, error)
	GetForecast(ctx context.Context, city string) ([]weather.ForecastEntry, error)
	GetLastCachedWeather(ctx context.Context) (weather.Reading, bool)
}

// Machine owns the lookup state of one session.
//
// Every action that starts a fetch sequence takes a new generation token;
// emissions carrying an older token are dropped, so the most recent request
// decides the state even when an earlier response arrives later.
type Machine struct {
	fetcher Fetcher
	locator location.Provider
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State
	gen    uint64
	subs   map[int]chan State
	nextID int
	closed bool
}

// NewMachine creates a Machine in the Initial state.
func NewMachine(fetcher Fetcher, locator location.Provider, logger *slog.Logger) *Machine {
	if locator == nil {
		locator = location.NewStatic(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Machine{
		fetcher: fetcher,
		locator: locator,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		state:   Initial{},
		subs:    make(map[int]chan State),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel receiving state changes and a function that
// ends the subscription. A slow reader only sees the latest state.
func (m *Machine) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 1)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// Start performs the cold start: the most recent cached reading is shown
// right away and its forecast merged in later; with an empty cache the
// machine falls through to a current-location lookup.
func (m *Machine) Start() {
	token, ok := m.begin(nil)
	if !ok {
		return
	}
	m.spawn(func(ctx context.Context, log *slog.Logger) {
		cached, found := m.fetcher.GetLastCachedWeather(ctx)
		if !found {
			log.InfoContext(ctx, "cold start: cache empty, using current location")
			if !m.emit(token, Loading{}) {
				return
			}
			m.runLocation(ctx, log, token, m.locator)
			return
		}

		log.InfoContext(ctx, "cold start: showing cached reading", slog.String("city", cached.CityName))
		if !m.emit(token, successFrom(cached, nil)) {
			return
		}

		entries, err := m.fetcher.GetForecast(ctx, cached.CityName)
		if err != nil {
			log.WarnContext(ctx, "cold start forecast failed", slog.String("city", cached.CityName), slog.Any("error", err))
			return
		}
		m.mergeForecast(token, cached.CityName, entries)
	})
}

// SearchCity looks up current weather and forecast for name.
// Blank names are ignored and leave the state untouched.
func (m *Machine) SearchCity(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	token, ok := m.begin(Loading{})
	if !ok {
		return
	}
	m.spawn(func(ctx context.Context, log *slog.Logger) {
		m.runSearch(ctx, log, token, name)
	})
}

// UseCurrentLocation looks up weather at the configured device position.
func (m *Machine) UseCurrentLocation() {
	m.UseLocation(m.locator)
}

// UseLocation looks up weather at the position reported by locator.
func (m *Machine) UseLocation(locator location.Provider) {
	token, ok := m.begin(Loading{})
	if !ok {
		return
	}
	m.spawn(func(ctx context.Context, log *slog.Logger) {
		m.runLocation(ctx, log, token, locator)
	})
}

// Wait blocks until every running sequence has finished.
func (m *Machine) Wait() {
	m.wg.Wait()
}

// Close cancels running sequences, waits for them and closes subscriptions.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

func (m *Machine) runSearch(ctx context.Context, log *slog.Logger, token uint64, city string) {
	var (
		reading  weather.Reading
		werr     error
		forecast []weather.ForecastEntry
	)

	var g errgroup.Group
	g.Go(func() error {
		reading, werr = m.fetcher.GetCurrentWeather(ctx, city)
		return nil
	})
	g.Go(func() error {
		entries, err := m.fetcher.GetForecast(ctx, city)
		if err != nil {
			log.WarnContext(ctx, "forecast unavailable", slog.String("city", city), slog.Any("error", err))
			return nil
		}
		forecast = entries
		return nil
	})
	_ = g.Wait()

	if werr != nil {
		log.WarnContext(ctx, "search failed", slog.String("city", city), slog.Any("error", werr))
		m.emit(token, Error{
			Kind:    weather.KindOf(werr),
			Message: fmt.Sprintf("Failed to fetch weather: %v", werr),
		})
		return
	}
	m.emit(token, successFrom(reading, forecast))
}

func (m *Machine) runLocation(ctx context.Context, log *slog.Logger, token uint64, locator location.Provider) {
	fix, err := locator.CurrentFix(ctx)
	if err != nil {
		log.WarnContext(ctx, "location fix failed", slog.Any("error", err))
		msg := fmt.Sprintf("Location error: %v. Please check permissions and GPS", err)
		if location.IsUnavailable(err) {
			msg = "Unable to get location. Please enable GPS"
		}
		m.emit(token, Error{Kind: weather.KindLocation, Message: msg})
		return
	}

	reading, err := m.fetcher.GetWeatherByLocation(ctx, fix.Latitude, fix.Longitude)
	if err != nil {
		log.WarnContext(ctx, "weather by location failed",
			slog.Float64("lat", fix.Latitude), slog.Float64("lon", fix.Longitude), slog.Any("error", err))
		m.emit(token, Error{
			Kind:    weather.KindOf(err),
			Message: fmt.Sprintf("Failed to get weather: %v", err),
		})
		return
	}

	if !m.current(token) {
		log.DebugContext(ctx, "location sequence superseded before search")
		return
	}
	log.InfoContext(ctx, "location resolved", slog.String("city", reading.CityName))
	m.runSearch(ctx, log, token, reading.CityName)
}

// begin opens a new sequence and, when first is non-nil, emits it
// synchronously so callers observe the transition before returning.
// A successful begin must be followed by exactly one spawn.
func (m *Machine) begin(first State) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, false
	}
	m.gen++
	m.wg.Add(1)
	if first != nil {
		m.setLocked(first)
	}
	return m.gen, true
}

func (m *Machine) spawn(fn func(ctx context.Context, log *slog.Logger)) {
	log := m.logger.With(slog.String("sequence_id", uuid.NewString()))
	go func() {
		defer m.wg.Done()
		fn(m.ctx, log)
	}()
}

func (m *Machine) current(token uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && token == m.gen
}

// emit sets s if token is still current and reports whether it did.
func (m *Machine) emit(token uint64, s State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || token != m.gen {
		m.logger.Debug("dropping stale state", slog.String("state", Name(s)), slog.Uint64("token", token))
		return false
	}
	m.setLocked(s)
	return true
}

// mergeForecast fills in the forecast of the cold-start Success if nothing
// has replaced it in the meantime.
func (m *Machine) mergeForecast(token uint64, city string, entries []weather.ForecastEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || token != m.gen {
		return
	}
	cur, ok := m.state.(Success)
	if !ok || cur.CityName != city {
		return
	}
	if entries == nil {
		entries = []weather.ForecastEntry{}
	}
	cur.Forecast = entries
	m.setLocked(cur)
}

func (m *Machine) setLocked(s State) {
	m.state = s
	metrics.RecordTransition(Name(s))
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
