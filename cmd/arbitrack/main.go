// Package main is the entry point for the Arbitrack cross-exchange scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/arbitrack/arbitrack/business/arbitrage"
	arbitrageDI "github.com/arbitrack/arbitrack/business/arbitrage/di"
	"github.com/arbitrack/arbitrack/business/marketdata"
	marketdataDI "github.com/arbitrack/arbitrack/business/marketdata/di"
	"github.com/arbitrack/arbitrack/internal/apm"
	"github.com/arbitrack/arbitrack/internal/config"
	"github.com/arbitrack/arbitrack/internal/health"
	"github.com/arbitrack/arbitrack/internal/logger"
	"github.com/arbitrack/arbitrack/internal/metrics"
	"github.com/arbitrack/arbitrack/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("arbitrack %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting arbitrack",
		"version", version,
		"environment", cfg.App.Environment,
		"exchanges", len(cfg.Exchanges.Names),
		"assets", len(cfg.Scanner.Assets),
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		provider := apm.ZipkinProvider
		if cfg.Telemetry.TraceProvider == "otlp" {
			provider = apm.OTLPProvider
		}
		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(provider, log))
		log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)

		if _, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		); err != nil {
			return fmt.Errorf("failed to create metric provider: %w", err)
		}

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&marketdata.Module{}, // Must be first - provides the source pool
		&arbitrage.Module{},  // Depends on market data
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// Health endpoints with the live checks
	healthServer := health.NewServer(cfg.App.HealthPort, version)
	healthServer.RegisterCheck("cache", func(ctx context.Context) (bool, string) {
		if err := mono.CacheStore().Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	healthServer.RegisterCheck("sources", func(ctx context.Context) (bool, string) {
		pool := marketdataDI.GetPool(mono.Services())
		active := pool.ActiveCount()
		if active == 0 {
			return false, "no active exchange sources"
		}
		return true, fmt.Sprintf("%d active", active)
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.App.HealthPort)
	}
	defer healthServer.Stop(ctx)

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	log.Info(ctx, "all modules started, scanner running",
		"refresh_interval", cfg.Scanner.RefreshInterval.String(),
		"cache_ttl", cfg.Cache.TTL.String())

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")
	arbitrageDI.GetScheduler(mono.Services()).Stop()

	return nil
}
