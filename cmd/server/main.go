// Package main is the entry point for the dawn patrol prediction server.
//
// It loads configuration, connects storage and the weather providers, starts
// the refresh scheduler and MQTT ingestion, and serves the HTTP API.
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samqbush/dp-soda-sub005/internal/aggregator"
	"github.com/samqbush/dp-soda-sub005/internal/api"
	"github.com/samqbush/dp-soda-sub005/internal/config"
	"github.com/samqbush/dp-soda-sub005/internal/db"
	"github.com/samqbush/dp-soda-sub005/internal/external"
	"github.com/samqbush/dp-soda-sub005/internal/factors"
	"github.com/samqbush/dp-soda-sub005/internal/metrics"
	"github.com/samqbush/dp-soda-sub005/internal/prediction"
	"github.com/samqbush/dp-soda-sub005/internal/scheduler"
	"github.com/samqbush/dp-soda-sub005/internal/types"
	"github.com/samqbush/dp-soda-sub005/internal/verification"
	"github.com/samqbush/dp-soda-sub005/internal/wind"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	// The SSM region must be known before the full config loads; read it
	// straight from the environment with the same default the config carries.
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}
	cfg, err := config.LoadConfig(config.NewSSMProvider(region))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("dp-soda starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tz, err := time.LoadLocation(cfg.Locations.Timezone)
	if err != nil {
		return fmt.Errorf("loading site timezone %q: %w", cfg.Locations.Timezone, err)
	}
	clock := types.RealClock{}

	// Database.
	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("preparing database schema: %w", err)
	}
	predictionRepo := db.NewPredictionRepository(pool)
	verificationRepo := db.NewVerificationRepository(pool)
	snapshotRepo := db.NewSnapshotRepository(pool)

	// Forecast providers in priority order.
	httpClient := &http.Client{Timeout: cfg.Weather.FetchTimeout}
	providers := []types.ForecastProvider{
		external.NewOpenWeatherClient(httpClient, external.OpenWeatherConfig{
			APIKey:    cfg.Weather.OpenWeatherAPIKey,
			UserAgent: cfg.Weather.UserAgent,
		}),
		external.NewNOAAClient(httpClient, cfg.Weather.UserAgent, ""),
	}

	thresholds := buildThresholds(cfg)
	locations := []types.Location{
		{Name: cfg.Locations.ValleyName, Lat: cfg.Locations.ValleyLat, Lon: cfg.Locations.ValleyLon},
		{Name: cfg.Locations.MountainName, Lat: cfg.Locations.MountainLat, Lon: cfg.Locations.MountainLon},
	}

	holder := &aggregator.SnapshotHolder{}
	// Replay the two most recent persisted snapshots, oldest first, so the
	// pressure trend is available immediately after a restart.
	if recent, err := snapshotRepo.LoadRecent(ctx, 2); err != nil {
		logger.Warn("loading persisted snapshots", "error", err)
	} else {
		for i := len(recent) - 1; i >= 0; i-- {
			holder.Set(recent[i])
		}
	}
	agg := aggregator.New(aggregator.Config{
		Providers:    providers,
		Locations:    locations,
		FetchTimeout: cfg.Weather.FetchTimeout,
		Clock:        clock,
		Logger:       logger,
	})

	synth := prediction.NewSynthesizer(prediction.SynthesizerConfig{
		Thresholds: thresholds,
		Weights:    prediction.DefaultWeights(),
		Bonuses:    prediction.DefaultBonusRules(),
		Clock:      clock,
		Logger:     logger,
	})
	// Sensor sources: local MQTT ring store preferred, Ecowitt cloud as
	// fallback when the station is idle.
	store := wind.NewStore(cfg.MQTT.StoreCapacity, clock)
	var ingester *wind.Ingester
	if cfg.MQTT.BrokerURL != "" {
		ingester, err = wind.NewIngester(wind.IngesterConfig{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			Topic:     cfg.MQTT.WindTopic,
			Logger:    logger,
		}, store)
		if err != nil {
			return fmt.Errorf("connecting station telemetry: %w", err)
		}
		defer ingester.Close()
		if err := ingester.Start(); err != nil {
			return fmt.Errorf("subscribing to station telemetry: %w", err)
		}
	}

	var sensor types.SensorSource = store
	if cfg.Sensor.EcowittMAC != "" {
		sensor = wind.NewFallbackSource(store, external.NewEcowittClient(httpClient, external.EcowittConfig{
			ApplicationKey: cfg.Sensor.EcowittApplicationKey,
			APIKey:         cfg.Sensor.EcowittAPIKey,
			MACAddress:     cfg.Sensor.EcowittMAC,
			UserAgent:      cfg.Weather.UserAgent,
		}, clock))
	}

	analyzer := wind.NewAnalyzer(clock)
	lifecycle := prediction.NewLifecycle(prediction.LifecycleConfig{
		Synthesizer: synth,
		Snapshots:   holder,
		Store:       predictionRepo,
		Clock:       clock,
		Timezone:    tz,
		Window:      thresholds.DecisionWindow,
		Sensor:      sensor,
		Analyzer:    analyzer,
		Criteria:    cfg.Alarm.AlarmCriteria(),
		Logger:      logger,
	})

	verifier := verification.NewEngine(verification.Config{
		Sensor:   sensor,
		Store:    verificationRepo,
		Window:   thresholds.DecisionWindow,
		Timezone: tz,
		Clock:    clock,
		Logger:   logger,
	})

	var publisher *metrics.Publisher
	var metricsHandler http.Handler
	if cfg.Server.EnableMetrics {
		publisher = metrics.NewPublisher()
		metricsHandler = publisher.Handler()
	}

	refresher := scheduler.New(scheduler.Config{
		Aggregator:  agg,
		Holder:      holder,
		Lifecycle:   lifecycle,
		Publisher:   publisher,
		Snapshots:   snapshotRepo,
		Clock:       clock,
		Timezone:    tz,
		Interval:    cfg.Scheduler.RefreshInterval,
		EveningHour: cfg.Scheduler.EveningHour,
		Logger:      logger,
	})
	go refresher.Run(ctx)

	handlers := api.NewHandlers(api.HandlersConfig{
		Predictions:  lifecycle,
		History:      predictionRepo,
		Verifier:     verifier,
		Verification: verificationRepo,
		Analyzer:     analyzer,
		Sensor:       sensor,
		Refresh:      refresher,
		Snapshots:    holder,
		Criteria:     cfg.Alarm.AlarmCriteria(),
		Clock:        clock,
		Logger:       logger,
	})
	srv := api.NewServer(logger, handlers, metricsHandler)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("http server: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildThresholds maps the flat configuration keys into the factor threshold
// structure.
func buildThresholds(cfg *config.Config) factors.Thresholds {
	t := factors.DefaultThresholds()
	t.MaxPrecipProbPct = cfg.Factors.MaxPrecipProbPct
	t.MinSkyClearnessPct = cfg.Factors.MinSkyClearnessPct
	t.MinPressureChangeHpa = cfg.Factors.MinPressureChangeHpa
	t.MinTempDiffF = cfg.Factors.MinTempDiffF
	t.MinWaveScore = cfg.Factors.MinWaveScore
	t.DecisionWindow = types.TimeWindow{StartHour: cfg.Factors.DecisionWindowStart, EndHour: cfg.Factors.DecisionWindowEnd}
	t.ClearSkyWindow = types.TimeWindow{StartHour: cfg.Factors.ClearSkyWindowStart, EndHour: cfg.Factors.ClearSkyWindowEnd}
	t.PressureLookback = cfg.Factors.PressureLookback
	t.ValleyLocation = cfg.Locations.ValleyName
	t.MountainLocation = cfg.Locations.MountainName
	return t
}

// newLogger creates a structured JSON logger at the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
