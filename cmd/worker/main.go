// Package main provides the entrypoint for the modechoice batch worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/config"
	"github.com/travelmodel/modechoice/internal/database"
	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/logging"
	"github.com/travelmodel/modechoice/internal/network"
	"github.com/travelmodel/modechoice/internal/resilience"
	"github.com/travelmodel/modechoice/internal/telemetry"
	"github.com/travelmodel/modechoice/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "modechoice-worker"

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Logging, serviceName, Version)
	defer logCloser.Close()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting modechoice worker")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	evalMetrics, err := evaluation.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize evaluation metrics")
	}
	networkMetrics, err := network.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize network metrics")
	}

	repo, closeRepo, err := openNetworkRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open network store")
	}
	defer closeRepo()

	health := resilience.NewRegistry()
	networks := network.NewService(network.ServiceConfig{
		Repository:      repo,
		Health:          health,
		Logger:          log,
		Metrics:         networkMetrics,
		CacheTTL:        cfg.Networks.CacheTTL,
		StaleIfErrorTTL: cfg.Networks.StaleIfErrorTTL,
	})

	params, err := cfg.Modes.LoadParameters()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load mode parameters")
	}
	evaluations := evaluation.NewService(evaluation.ServiceConfig{
		Networks:        networks,
		Parameters:      params,
		VehicleTypes:    cfg.Modes.VehicleTypes,
		AutoVehicleType: cfg.Modes.AutoVehicleType,
		Metrics:         evalMetrics,
		Logger:          log,
	})

	job := worker.NewEvaluationJob(worker.EvaluationJobConfig{
		Config: worker.EvaluationConfig{
			Concurrency:  cfg.Worker.Concurrency,
			MaxBatchSize: cfg.Worker.MaxBatchSize,
		},
		Engines: evaluations,
		Logger:  log,
	})

	// Worker also exposes health endpoints for Cloud Run
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"version": Version,
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		status := http.StatusOK
		if !evaluations.Ready() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]interface{}{
			"ready":   status == http.StatusOK,
			"network": networks.CacheStats(),
			"stores":  health.GetAllHealth(),
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, job.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.Worker.ProjectID,
		SubscriptionName: cfg.Worker.Subscription,
		EvaluationJob:    job,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Pub/Sub handler")
	}
	defer handler.Close()

	go func() {
		if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Pub/Sub receiver stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// openNetworkRepository opens the configured network store. The returned
// func releases it.
func openNetworkRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (network.Repository, func(), error) {
	if cfg.Networks.Source == config.SourceFixture {
		f, err := os.Open(cfg.Networks.FixturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open network fixture: %w", err)
		}
		defer f.Close()
		repo, err := network.ReadFixture(f)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("database", cfg.Database.Database).Msg("database connected")
	return network.NewPostgresRepository(pool), pool.Close, nil
}
