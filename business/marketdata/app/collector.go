package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/arbitrack/arbitrack/business/marketdata/domain"
	"github.com/arbitrack/arbitrack/internal/logger"
	"github.com/arbitrack/arbitrack/internal/settle"
)

const meterName = "marketdata_collector"

// errDroppedQuote marks a quote filtered out before detection. Filtered
// quotes are counted, never surfaced as failures.
var errDroppedQuote = errors.New("quote dropped")

// CollectorConfig holds quote collection settings.
type CollectorConfig struct {
	MinVolume    decimal.Decimal // quote-currency liquidity floor
	FetchTimeout time.Duration   // per-fetch deadline
}

// Collector fans one scan cycle out across every active source and asset,
// then groups the surviving quotes per asset. A failed fetch drops only its
// own (asset, source) pair.
type Collector struct {
	pool         *Pool
	cfg          CollectorConfig
	logger       logger.LoggerInterface
	fetchCounter metric.Int64Counter
	dropCounter  metric.Int64Counter
}

// NewCollector creates a collector over the given pool.
func NewCollector(pool *Pool, cfg CollectorConfig, log logger.LoggerInterface) (*Collector, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	fetchCounter, err := meter.Int64Counter("ticker_fetches_total",
		metric.WithDescription("Ticker fetch attempts per exchange and outcome"))
	if err != nil {
		return nil, err
	}
	dropCounter, err := meter.Int64Counter("quotes_dropped_total",
		metric.WithDescription("Quotes dropped before detection, by reason"))
	if err != nil {
		return nil, err
	}

	return &Collector{
		pool:         pool,
		cfg:          cfg,
		logger:       log,
		fetchCounter: fetchCounter,
		dropCounter:  dropCounter,
	}, nil
}

// Collect gathers quotes for every asset from every active source. The
// result maps asset symbol to its surviving quotes; assets with no quotes
// are absent. Order within a slice is not significant.
func (c *Collector) Collect(ctx context.Context, assets []string) map[string][]domain.Quote {
	sources := c.pool.Active()

	var tasks []settle.Task[domain.Quote]
	for _, source := range sources {
		for _, asset := range assets {
			if !source.Supports(asset) {
				c.logger.Debug(ctx, "pair not listed, skipping",
					"exchange", source.Name(), "asset", asset)
				continue
			}
			source, asset := source, asset
			tasks = append(tasks, func(ctx context.Context) (domain.Quote, error) {
				return c.fetchQuote(ctx, source, asset)
			})
		}
	}

	results := settle.AllWithTimeout(ctx, func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, c.cfg.FetchTimeout)
	}, tasks)

	quotes := make(map[string][]domain.Quote)
	for _, q := range settle.Values(results) {
		quotes[q.Asset] = append(quotes[q.Asset], q)
	}

	c.logger.Info(ctx, "collection cycle finished",
		"assets", len(assets),
		"sources", len(sources),
		"fetches", len(tasks),
		"quoted_assets", len(quotes))

	return quotes
}

// fetchQuote fetches one ticker, applying the liquidity floor.
func (c *Collector) fetchQuote(ctx context.Context, source ExchangeClient, asset string) (domain.Quote, error) {
	ticker, err := source.FetchTicker(ctx, asset)
	if err != nil {
		c.fetchCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("exchange", source.Name()),
			attribute.Bool("success", false)))
		c.logger.Warn(ctx, "ticker fetch failed",
			"exchange", source.Name(), "asset", asset, "error", err)
		return domain.Quote{}, err
	}

	c.fetchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("exchange", source.Name()),
		attribute.Bool("success", true)))

	quote := domain.NewQuote(source.Name(), asset, ticker, time.Now())

	if !ticker.IsUsable() {
		c.dropCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "no_price")))
		return domain.Quote{}, errDroppedQuote
	}
	if quote.Volume.LessThan(c.cfg.MinVolume) {
		c.dropCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "low_volume")))
		c.logger.Debug(ctx, "quote below liquidity floor",
			"exchange", source.Name(), "asset", asset, "volume", quote.Volume.String())
		return domain.Quote{}, errDroppedQuote
	}

	return quote, nil
}
