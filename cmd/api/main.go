// Package main provides the entrypoint for the modechoice API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/api"
	"github.com/travelmodel/modechoice/internal/api/middleware"
	"github.com/travelmodel/modechoice/internal/auth"
	"github.com/travelmodel/modechoice/internal/config"
	"github.com/travelmodel/modechoice/internal/database"
	"github.com/travelmodel/modechoice/internal/evaluation"
	"github.com/travelmodel/modechoice/internal/logging"
	"github.com/travelmodel/modechoice/internal/network"
	"github.com/travelmodel/modechoice/internal/resilience"
	"github.com/travelmodel/modechoice/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const devSigningKey = "local-dev-signing-key-change-in-production"

func main() {
	const serviceName = "modechoice-api"

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	log, logCloser := logging.New(cfg.Logging, serviceName, Version)
	defer logCloser.Close()

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting modechoice API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	evalMetrics, err := evaluation.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize evaluation metrics")
	}
	networkMetrics, err := network.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize network metrics")
	}

	// Network store
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

	// Warm the engine; the API still starts if the store is down and
	// reports not ready until a load succeeds.
	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	if _, err := evaluations.Engine(warmCtx); err != nil {
		log.Warn().Err(err).Msg("initial network load failed")
	}
	cancelWarm()

	// Initialize JWT service
	signingKey := cfg.Auth.SigningKey
	if signingKey == "" {
		if cfg.IsProduction() {
			log.Fatal().Msg("JWT_SIGNING_KEY is required in production")
		}
		signingKey = devSigningKey
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: signingKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT service")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		JWT:         jwtService,
		Evaluations: evaluations,
		Networks:    networks,
		Health:      health,
		RequireTLS:  cfg.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// openNetworkRepository opens the configured network store. The returned
// func releases it.
func openNetworkRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (network.Repository, func(), error) {
	switch cfg.Networks.Source {
	case config.SourceFixture:
		f, err := os.Open(cfg.Networks.FixturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open network fixture: %w", err)
		}
		defer f.Close()
		repo, err := network.ReadFixture(f)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Networks.FixturePath).Msg("network fixture loaded")
		return repo, func() {}, nil

	default:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
		return network.NewPostgresRepository(pool), pool.Close, nil
	}
}
