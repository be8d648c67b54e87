package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketdataApp "github.com/arbitrack/arbitrack/business/marketdata/app"
	marketdata "github.com/arbitrack/arbitrack/business/marketdata/domain"
	"github.com/arbitrack/arbitrack/internal/cache"
	"github.com/arbitrack/arbitrack/internal/logger"
)

// stubVenue is a fixed-price ExchangeClient for facade tests.
type stubVenue struct {
	name    string
	prices  map[string]float64
	volumes map[string]float64
	fetches int64
}

func (v *stubVenue) Name() string { return v.name }

func (v *stubVenue) LoadMarkets(ctx context.Context) error { return nil }

func (v *stubVenue) Supports(asset string) bool {
	_, ok := v.prices[asset]
	return ok
}

func (v *stubVenue) FetchTicker(ctx context.Context, asset string) (marketdata.Ticker, error) {
	atomic.AddInt64(&v.fetches, 1)
	return marketdata.Ticker{
		Last:        decimal.NewFromFloat(v.prices[asset]),
		QuoteVolume: decimal.NewFromFloat(v.volumes[asset]),
	}, nil
}

func newTestService(t *testing.T, venues ...*stubVenue) (*Service, []*stubVenue) {
	t.Helper()
	return newTestServiceForAssets(t, []string{"BTC"}, venues...)
}

func newTestServiceForAssets(t *testing.T, assets []string, venues ...*stubVenue) (*Service, []*stubVenue) {
	t.Helper()

	if len(venues) == 0 {
		venues = []*stubVenue{
			{
				name:    "binance",
				prices:  map[string]float64{"BTC": 50000},
				volumes: map[string]float64{"BTC": 300000},
			},
			{
				name:    "kraken",
				prices:  map[string]float64{"BTC": 50600},
				volumes: map[string]float64{"BTC": 450000},
			},
		}
	}

	clients := make([]marketdataApp.ExchangeClient, len(venues))
	for i, v := range venues {
		clients[i] = v
	}

	log := logger.NewNop()

	pool := marketdataApp.NewPool(clients, time.Second, log)
	require.NoError(t, pool.Initialize(context.Background()))

	collector, err := marketdataApp.NewCollector(pool, marketdataApp.CollectorConfig{
		MinVolume:    decimal.NewFromInt(200000),
		FetchTimeout: time.Second,
	}, log)
	require.NoError(t, err)

	scheduler, err := NewScheduler(cache.NewMemoryStore(), SchedulerConfig{
		TTL:             300 * time.Second,
		RefreshInterval: 300 * time.Second,
	}, log)
	require.NoError(t, err)

	service := NewService(
		pool,
		collector,
		NewDetector(decimal.NewFromFloat(0.5), log),
		NewSizer(decimal.NewFromInt(100000)),
		scheduler,
		assets,
		nil,
		log,
	)

	return service, venues
}

func TestGetRankedOpportunitiesEndToEnd(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.GetRankedOpportunities(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Opportunities, 1)
	opp := result.Opportunities[0]
	assert.Equal(t, "BTC", opp.Coin)
	assert.Equal(t, "kraken", opp.HighestExchange)
	assert.Equal(t, "binance", opp.LowestExchange)
	assert.Equal(t, "1.20", opp.ProfitPercentage.StringFixed(2))
	assert.Equal(t, "300000.00", opp.MaxTradeSize.StringFixed(2))
	assert.Equal(t, 2, result.ExchangeCount)
	assert.Equal(t, 1, result.ScannedPairs)
}

func TestScannedPairsCountsQuotedAssetsOnly(t *testing.T) {
	// Both venues list BTC only, so ETH and XRP never yield a quote.
	venues := []*stubVenue{
		{
			name:    "binance",
			prices:  map[string]float64{"BTC": 50000},
			volumes: map[string]float64{"BTC": 300000},
		},
		{
			name:    "kraken",
			prices:  map[string]float64{"BTC": 50600},
			volumes: map[string]float64{"BTC": 450000},
		},
	}
	service, _ := newTestServiceForAssets(t, []string{"BTC", "ETH", "XRP"}, venues...)

	result, err := service.GetRankedOpportunities(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ScannedPairs,
		"only assets with at least one surviving quote count as scanned")
	assert.Equal(t, 2, result.ExchangeCount)
}

func TestGetRankedOpportunitiesIsCached(t *testing.T) {
	service, venues := newTestService(t)
	ctx := context.Background()

	_, err := service.GetRankedOpportunities(ctx)
	require.NoError(t, err)
	fetchesAfterFirst := atomic.LoadInt64(&venues[0].fetches)

	_, err = service.GetRankedOpportunities(ctx)
	require.NoError(t, err)

	assert.Equal(t, fetchesAfterFirst, atomic.LoadInt64(&venues[0].fetches),
		"a read within the TTL window must not hit the venues")
}

func TestGetSizedOpportunitiesDerivesFromRankedCycle(t *testing.T) {
	service, venues := newTestService(t)
	ctx := context.Background()

	sized, err := service.GetSizedOpportunities(ctx, decimal.NewFromInt(50000))
	require.NoError(t, err)

	require.Len(t, sized, 1)
	assert.Equal(t, "50000.00", sized[0].SizedAmount.StringFixed(2))
	assert.Equal(t, "600.00", sized[0].ProjectedProfit.StringFixed(2))

	// A second sized read reuses both the sized and the ranked payloads.
	fetches := atomic.LoadInt64(&venues[0].fetches)
	_, err = service.GetSizedOpportunities(ctx, decimal.NewFromInt(50000))
	require.NoError(t, err)
	assert.Equal(t, fetches, atomic.LoadInt64(&venues[0].fetches))
}

func TestGetSizedOpportunitiesDefaultInvestment(t *testing.T) {
	service, _ := newTestService(t)

	sized, err := service.GetSizedOpportunities(context.Background(), decimal.Zero)
	require.NoError(t, err)

	require.Len(t, sized, 1)
	assert.Equal(t, "100000", sized[0].Investment.StringFixed(0))
	// Default 100000 is below the 300000 tradable size, so it binds.
	assert.Equal(t, "100000.00", sized[0].SizedAmount.StringFixed(2))
}

func TestParseInvestmentFallback(t *testing.T) {
	service, _ := newTestService(t)

	assert.Equal(t, "100000", service.ParseInvestment("abc").String())
	assert.Equal(t, "250000", service.ParseInvestment("250000").String())
}

func TestRefreshNowPopulatesTiming(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.RefreshNow(ctx))

	timing := service.GetRefreshTiming(ctx)
	assert.NotZero(t, timing.LastRefreshTime)
	assert.Greater(t, timing.NextRefreshTime, timing.LastRefreshTime)
}
