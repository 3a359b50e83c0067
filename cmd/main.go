package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aegis/internal/adapters/config"
	"aegis/internal/adapters/errors/noop"
	"aegis/internal/adapters/errors/sentry"
	"aegis/internal/adapters/providers"
	"aegis/internal/agents"
	"aegis/internal/api"
	"aegis/internal/api/health"
	"aegis/internal/metrics"
	"aegis/pkg/errors"
	"aegis/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Register Prometheus metrics
	metrics.Init()

	// Initialize data providers
	deps := initProviders(cfg, log)

	// Initialize orchestration engine
	engine := agents.NewEngine(cfg.Engine, cfg.Decision, deps)
	log.Info("Orchestration engine initialized")

	// Initialize HTTP server
	server := api.NewServer(
		api.ServerConfig{
			Port:        cfg.Server.Port,
			ServiceName: cfg.App.Name,
			Version:     version,
		},
		api.NewAgentHandler(engine, log),
		api.NewStatusStreamHandler(engine, cfg.Server.StreamInterval, log),
		health.New(log, deps, cfg.App.Name, version),
		log,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(server, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initProviders wires the synthetic data providers behind a shared seeded
// randomness source
func initProviders(cfg *config.Config, log *logger.Logger) agents.Deps {
	random := providers.NewSeededRandom(cfg.Providers.RandomSeed)

	log.Info("Data providers initialized")
	return agents.Deps{
		Protocols:  providers.NewSyntheticProtocolProvider(cfg.Providers, random),
		Market:     providers.NewSyntheticMarketProvider(cfg.Providers, random),
		Compliance: providers.NewSyntheticComplianceProvider(cfg.Providers, random),
		Random:     random,
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(server *api.Server, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("HTTP server shutdown error: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
