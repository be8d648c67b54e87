// Package arbitrage implements the arbitrage bounded context: spread
// detection, opportunity sizing, the cache-refresh scheduler, and the query
// facade over them.
package arbitrage

import (
	"context"

	"github.com/arbitrack/arbitrack/business/arbitrage/app"
	arbitrageDI "github.com/arbitrack/arbitrack/business/arbitrage/di"
	"github.com/arbitrack/arbitrack/business/arbitrage/infra"
	marketdataDI "github.com/arbitrack/arbitrack/business/marketdata/di"
	"github.com/arbitrack/arbitrack/internal/cache"
	"github.com/arbitrack/arbitrack/internal/config"
	"github.com/arbitrack/arbitrack/internal/di"
	"github.com/arbitrack/arbitrack/internal/logger"
	"github.com/arbitrack/arbitrack/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Detector - private dependency
	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewDetector(cfg.Scanner.MinProfitPctDecimal(), log)
	})

	// Register Sizer - private dependency
	di.RegisterToken(c, arbitrageDI.Sizer, func(sr di.ServiceRegistry) *app.Sizer {
		cfg := sr.Get("config").(*config.Config)
		return app.NewSizer(cfg.Scanner.DefaultInvestmentDecimal())
	})

	// Register Scheduler - private dependency
	di.RegisterToken(c, arbitrageDI.Scheduler, func(sr di.ServiceRegistry) *app.Scheduler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		store := sr.Get("cacheStore").(cache.Store)

		scheduler, err := app.NewScheduler(store, app.SchedulerConfig{
			TTL:             cfg.Cache.TTL,
			RefreshInterval: cfg.Scanner.RefreshInterval,
		}, log)
		if err != nil {
			panic("failed to create scheduler: " + err.Error())
		}
		return scheduler
	})

	// Register Reporter - private dependency
	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		return infra.NewConsoleReporter()
	})

	// Register Service (public - exposed to other modules)
	di.RegisterToken(c, arbitrageDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewService(
			marketdataDI.GetPool(sr),
			marketdataDI.GetCollector(sr),
			arbitrageDI.GetDetector(sr),
			arbitrageDI.GetSizer(sr),
			arbitrageDI.GetScheduler(sr),
			cfg.Scanner.Assets,
			arbitrageDI.GetReporter(sr),
			log,
		)
	})

	return nil
}

// Startup runs the first scan cycle and starts the warm refresh timer. A
// failed first cycle is logged, not fatal; the next read or timer fire
// retries it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	service := arbitrageDI.GetService(mono.Services())
	scheduler := arbitrageDI.GetScheduler(mono.Services())

	if err := service.RefreshNow(ctx); err != nil {
		log.Warn(ctx, "initial scan failed, cache stays cold until next cycle", "error", err)
	}

	if err := scheduler.Start(service.RefreshNow); err != nil {
		return err
	}

	log.Info(ctx, "arbitrage module started")
	return nil
}
