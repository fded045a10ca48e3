package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Refresher fetches and caches the current reading for a city.
type Refresher interface {
	GetCurrentWeather(ctx context.Context, city string) (weather.Reading, error)
}

// Scheduler periodically refreshes the cached readings of tracked cities so a
// fresh fallback row exists when the provider is briefly unreachable.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *gocron.Job
	refresher Refresher
	cities    []string
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, refresher Refresher, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		cities:    cities,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately. A non-positive interval is an error.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info("scheduler: no tracked cities configured; nothing to schedule")
		return nil
	}

	job, err := s.scheduler.Every(s.interval).Do(s.RunOnce)
	if err != nil {
		return fmt.Errorf("scheduler: invalid refresh interval %s: %w", s.interval, err)
	}
	s.job = job

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every tracked city concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("scheduler: refreshing tracked cities", slog.Int("count", len(s.cities)))

	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if _, err := s.refresher.GetCurrentWeather(ctx, city); err != nil {
				s.logger.Warn("scheduler: refresh failed", slog.String("city", city), slog.Any("error", err))
			}
		}()
	}
	wg.Wait()
	s.logger.Debug("scheduler: refresh complete")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
