package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/app"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/logger"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}
	slog.SetDefault(appLogger)

	a, err := app.New(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to build application", slog.Any("error", err))
		os.Exit(1)
	}

	// Cache warmer, then cold start: last cached city, else current location.
	// A failed start has already released the cache.
	if err := a.Start(); err != nil {
		appLogger.Error("failed to start application", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLogger.Error("error during close", slog.Any("error", err))
		}
	}()

	server := httpapi.NewApp()
	httpapi.RegisterRoutes(server, a.Machine, a.Service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("starting HTTP server", slog.String("port", cfg.Port))
		if err := server.Listen(":" + cfg.Port); err != nil {
			appLogger.Error("fiber server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("error during shutdown", slog.Any("error", err))
	}
	appLogger.Info("shutdown complete")
}
