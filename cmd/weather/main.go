package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/i474232898/weather-lookup/internal/app"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/logger"
	"github.com/i474232898/weather-lookup/internal/render"
	"github.com/i474232898/weather-lookup/internal/session"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: weather [-here] [-last] [-provider=<name>] [city]")
	fmt.Fprintln(os.Stderr, "Examples: weather Paris")
	fmt.Fprintln(os.Stderr, "          weather -provider=weatherapi \"New York\"")
	fmt.Fprintln(os.Stderr, "          weather -here")
	fmt.Fprintln(os.Stderr, "          weather -last")
	flag.PrintDefaults()
}

func main() {
	here := flag.Bool("here", false, "use the current location instead of a city")
	last := flag.Bool("last", false, "show the last cached city and its forecast")
	providerName := flag.String("provider", "", "override WEATHER_PROVIDER")
	flag.Usage = usage
	flag.Parse()

	city := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if city == "" && !*here && !*last {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *providerName != "" {
		cfg.Provider = strings.ToLower(*providerName)
	}

	// Diagnostics go to stderr; stdout is reserved for the rendered result.
	appLogger, err := logger.New(os.Stderr, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}

	a, err := app.New(cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	switch {
	case *last:
		a.Machine.Start()
	case *here:
		a.Machine.UseCurrentLocation()
	default:
		a.Machine.SearchCity(city)
	}
	a.Machine.Wait()

	state := a.Machine.State()
	if err := render.State(os.Stdout, state); err != nil {
		log.Printf("failed to render: %v", err)
	}
	if err := a.Close(); err != nil {
		log.Printf("failed to close: %v", err)
	}

	if _, failed := state.(session.Error); failed {
		os.Exit(1)
	}
}
