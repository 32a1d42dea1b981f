package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	httpapi "weather-grid-ingest/internal/api/http"
	"weather-grid-ingest/internal/config"
	"weather-grid-ingest/internal/geo"
	"weather-grid-ingest/internal/health"
	"weather-grid-ingest/internal/ingest"
	"weather-grid-ingest/internal/logging"
	"weather-grid-ingest/internal/scheduler"
	"weather-grid-ingest/internal/store"
	"weather-grid-ingest/internal/weather"
)

func main() {
	if err := run(); err != nil {
		// Crash-vs-restart policy belongs to the external supervisor; we
		// just make sure the failure reaches it with a non-zero exit.
		log.Fatalf("weather-grid-ingest: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		FilePath:    cfg.LogFilePath,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		FilesToKeep: cfg.LogFilesToKeep,
	})
	defer logger.Sync()
	logger.Info("logging initialized", zap.String("file", cfg.LogFilePath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("attempting to connect to document store")
	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("connecting to document store: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("disconnecting from document store", zap.Error(err))
		}
	}()

	st := store.New(client, cfg.Database, cfg.Collection, logger)

	// Connection test is logged but not fatal; the loop proceeds and the
	// persistence retries deal with a store that comes up late.
	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.ServerSelectionTimeout)
	if err := st.Ping(pingCtx); err != nil {
		logger.Error("document store connection failure", zap.Error(err))
	} else {
		logger.Info("document store connection successful")
	}
	cancelPing()

	logger.Info("building weather grid coordinates", zap.Int("density", cfg.GridDensity))
	grid, err := geo.GenerateGrid(cfg.GridCorners, cfg.GridDensity)
	if err != nil {
		return fmt.Errorf("building grid: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := weather.NewFetcher(httpClient, cfg.WeatherBaseURL, cfg.OpenWeatherAPIKey, logger)
	reporter := health.NewReporter(cfg.HealthcheckURL, logger)

	loop := ingest.New(ingest.Config{
		Grid:           grid,
		MaxRetries:     cfg.MaxRetries,
		MilestoneEvery: cfg.MilestoneEvery,
		ReadInterval:   cfg.ReadInterval,
	}, fetcher, st, reporter, logger)

	statsReporter := scheduler.New(cfg.StatsInterval, loop.Stats, logger)
	if err := statsReporter.Start(); err != nil {
		return fmt.Errorf("starting stats reporter: %w", err)
	}
	defer statsReporter.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-grid-ingest",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})
	httpapi.RegisterRoutes(app, loop.Stats, st)

	go func() {
		if err := app.Listen(":" + cfg.OpsPort); err != nil {
			logger.Error("ops server stopped", zap.Error(err))
		}
	}()

	runErr := loop.Run(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during ops server shutdown", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("ingest loop failed", zap.Error(runErr))
		return runErr
	}

	logger.Info("shutdown complete")
	return nil
}
