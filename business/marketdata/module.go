// Package marketdata implements the market data bounded context: the venue
// client pool and the per-cycle quote collector.
package marketdata

import (
	"context"

	"github.com/arbitrack/arbitrack/business/marketdata/app"
	marketdataDI "github.com/arbitrack/arbitrack/business/marketdata/di"
	"github.com/arbitrack/arbitrack/business/marketdata/infra/binance"
	"github.com/arbitrack/arbitrack/business/marketdata/infra/bybit"
	"github.com/arbitrack/arbitrack/business/marketdata/infra/gateio"
	"github.com/arbitrack/arbitrack/business/marketdata/infra/kraken"
	"github.com/arbitrack/arbitrack/business/marketdata/infra/kucoin"
	"github.com/arbitrack/arbitrack/business/marketdata/infra/okx"
	"github.com/arbitrack/arbitrack/internal/config"
	"github.com/arbitrack/arbitrack/internal/di"
	"github.com/arbitrack/arbitrack/internal/logger"
	"github.com/arbitrack/arbitrack/internal/monolith"
)

// clientConfig is the venue-independent part of every adapter config.
type clientConfig struct {
	quoteCurrency     string
	requestsPerMinute int
}

// constructors maps configured venue names to their adapter factories.
var constructors = map[string]func(clientConfig, logger.LoggerInterface) (app.ExchangeClient, error){
	"binance": func(c clientConfig, log logger.LoggerInterface) (app.ExchangeClient, error) {
		return binance.New(binance.Config{QuoteCurrency: c.quoteCurrency, RequestsPerMinute: c.requestsPerMinute}, log)
	},
	"bybit": func(c clientConfig, log logger.LoggerInterface) (app.ExchangeClient, error) {
		return bybit.New(bybit.Config{QuoteCurrency: c.quoteCurrency, RequestsPerMinute: c.requestsPerMinute}, log)
	},
	"okx": func(c clientConfig, log logger.LoggerInterface) (app.ExchangeClient, error) {
		return okx.New(okx.Config{QuoteCurrency: c.quoteCurrency, RequestsPerMinute: c.requestsPerMinute}, log)
	},
	"kraken": func(c clientConfig, log logger.LoggerInterface) (app.ExchangeClient, error) {
		return kraken.New(kraken.Config{QuoteCurrency: c.quoteCurrency, RequestsPerMinute: c.requestsPerMinute}, log)
	},
	"kucoin": func(c clientConfig, log logger.LoggerInterface) (app.ExchangeClient, error) {
		return kucoin.New(kucoin.Config{QuoteCurrency: c.quoteCurrency, RequestsPerMinute: c.requestsPerMinute}, log)
	},
	"gateio": func(c clientConfig, log logger.LoggerInterface) (app.ExchangeClient, error) {
		return gateio.New(gateio.Config{QuoteCurrency: c.quoteCurrency, RequestsPerMinute: c.requestsPerMinute}, log)
	},
}

// Module implements the market data bounded context.
type Module struct{}

// RegisterServices registers all market data services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Pool (public - exposed to other modules)
	di.RegisterToken(c, marketdataDI.Pool, func(sr di.ServiceRegistry) *app.Pool {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		common := clientConfig{
			quoteCurrency:     cfg.Scanner.QuoteCurrency,
			requestsPerMinute: cfg.Exchanges.RequestsPerMinute,
		}

		clients := make([]app.ExchangeClient, 0, len(cfg.Exchanges.Names))
		for _, name := range cfg.Exchanges.Names {
			construct, ok := constructors[name]
			if !ok {
				log.Warn(context.Background(), "unknown exchange in config, skipping", "exchange", name)
				continue
			}
			client, err := construct(common, log)
			if err != nil {
				panic("failed to create exchange client " + name + ": " + err.Error())
			}
			clients = append(clients, client)
		}

		return app.NewPool(clients, cfg.Exchanges.InitTimeout, log)
	})

	// Register Collector (public - exposed to other modules)
	di.RegisterToken(c, marketdataDI.Collector, func(sr di.ServiceRegistry) *app.Collector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		pool := marketdataDI.GetPool(sr)

		collector, err := app.NewCollector(pool, app.CollectorConfig{
			MinVolume:    cfg.Scanner.MinVolumeDecimal(),
			FetchTimeout: cfg.Exchanges.FetchTimeout,
		}, log)
		if err != nil {
			panic("failed to create collector: " + err.Error())
		}
		return collector
	})

	return nil
}

// Startup initializes the market data module. A venue that fails to load its
// markets is excluded for the process lifetime; startup fails only when no
// venue survives.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	pool := marketdataDI.GetPool(mono.Services())

	if err := pool.Initialize(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "market data module started", "sources", pool.ActiveCount())
	return nil
}
