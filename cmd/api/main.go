// Package main provides the entrypoint for the TransitDeck API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/transitdeck/transitdeck/internal/api"
	"github.com/transitdeck/transitdeck/internal/api/middleware"
	"github.com/transitdeck/transitdeck/internal/auth"
	"github.com/transitdeck/transitdeck/internal/config"
	"github.com/transitdeck/transitdeck/internal/gtfs"
	"github.com/transitdeck/transitdeck/internal/logger"
	"github.com/transitdeck/transitdeck/internal/provider/resilience"
	"github.com/transitdeck/transitdeck/internal/telemetry"
	"github.com/transitdeck/transitdeck/internal/transit"
	"github.com/transitdeck/transitdeck/internal/transit/mta"
	"github.com/transitdeck/transitdeck/internal/transit/wmata"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "transitdeck-api"

	// Local development convenience; missing .env is not an error
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	log := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
		Service:  serviceName,
		Version:  Version,
	})

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.App.Environment).
		Msg("starting TransitDeck API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
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

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Upstream health tracking, shared by all provider clients
	health := resilience.NewRegistry()

	// Build the city adapters
	registry := transit.NewRegistry()

	var dcClient *wmata.Client
	if cfg.WMATA.APIKey != "" {
		dcClient, err = wmata.New(wmata.ClientConfig{
			APIKey:   cfg.WMATA.APIKey,
			BaseURL:  cfg.WMATA.BaseURL,
			Registry: health,
			Logger:   log.With().Str("provider", "wmata").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build WMATA client")
		}
		if err = registry.Register(dcClient); err != nil {
			log.Fatal().Err(err).Msg("failed to register WMATA client")
		}
		log.Info().Msg("DC Metro adapter registered")
	} else {
		log.Warn().Msg("WMATA_API_KEY not set - DC Metro endpoints disabled")
	}

	var nycClient *mta.Client
	dataset, err := gtfs.LoadDataset(cfg.MTA.DatasetPath)
	if err != nil {
		log.Warn().Err(err).
			Str("path", cfg.MTA.DatasetPath).
			Msg("reference dataset not loaded - NYC Subway endpoints disabled (run gtfsbuild to generate it)")
	} else {
		nycClient, err = mta.New(mta.ClientConfig{
			Dataset:     dataset,
			FeedTimeout: cfg.MTA.FeedTimeout,
			Registry:    health,
			Logger:      log.With().Str("provider", "mta").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build MTA client")
		}
		if err = registry.Register(nycClient); err != nil {
			log.Fatal().Err(err).Msg("failed to register MTA client")
		}
		log.Info().
			Int("stations", len(dataset.Stations)).
			Int("routes", len(dataset.Routes)).
			Msg("NYC Subway adapter registered")
	}

	// Operator token service for the status endpoint
	var authService *auth.Service
	if cfg.Auth.JWTSigningKey != "" {
		authService = auth.NewService(auth.Config{
			SigningKey: cfg.Auth.JWTSigningKey,
			Issuer:     cfg.Auth.JWTIssuer,
			Audience:   cfg.Auth.JWTAudience,
		})
	} else {
		log.Warn().Msg("JWT_SIGNING_KEY not set - status endpoint disabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		AuthService: authService,
		Transit:     registry,
		Health:      health,
		DC:          dcClient,
		NYC:         nycClient,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine so we can listen for shutdown signals
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("HTTP server listening")
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			log.Fatal().Err(serveErr).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
