// Package bybit implements the Bybit v5 spot REST adapter.
package bybit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arbitrack/arbitrack/business/marketdata/domain"
	"github.com/arbitrack/arbitrack/internal/apperror"
	"github.com/arbitrack/arbitrack/internal/circuitbreaker"
	"github.com/arbitrack/arbitrack/internal/httpclient"
	"github.com/arbitrack/arbitrack/internal/logger"
	"github.com/arbitrack/arbitrack/internal/ratelimit"
)

const (
	Name = "bybit"

	BaseAPIURL = "https://api.bybit.com"

	instrumentsEndpoint = "/v5/market/instruments-info"
	tickersEndpoint     = "/v5/market/tickers"

	categorySpot = "spot"

	httpTimeout = 10 * time.Second
)

// Config holds Bybit client settings.
type Config struct {
	BaseURL           string
	QuoteCurrency     string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client fetches Bybit spot tickers.
type Client struct {
	client  httpclient.Client
	quote   string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[domain.Ticker]
	logger  logger.LoggerInterface

	mu      sync.RWMutex
	markets map[string]string // asset -> venue symbol (BTC -> BTCUSDT)
}

// New creates a Bybit client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(Name),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client:  client,
		quote:   cfg.QuoteCurrency,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		breaker: circuitbreaker.New[domain.Ticker](circuitbreaker.DefaultConfig(Name)),
		logger:  log,
		markets: make(map[string]string),
	}, nil
}

// Name returns the venue identifier.
func (c *Client) Name() string {
	return Name
}

// envelope is the Bybit v5 response wrapper. RetCode 0 means success.
type envelope[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

type instrumentList struct {
	List []struct {
		Symbol    string `json:"symbol"`
		BaseCoin  string `json:"baseCoin"`
		QuoteCoin string `json:"quoteCoin"`
		Status    string `json:"status"`
	} `json:"list"`
}

// LoadMarkets fetches the spot instrument catalog.
func (c *Client) LoadMarkets(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result envelope[instrumentList]
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "instruments-info")),
	).
		SetQueryParam("category", categorySpot).
		SetResult(&result).
		Get(ctx, instrumentsEndpoint)
	if err != nil {
		return apperror.External(apperror.CodeMarketsLoadFailed, Name, err)
	}
	if resp.IsError() || result.RetCode != 0 {
		return apperror.New(apperror.CodeMarketsLoadFailed,
			apperror.WithContext(fmt.Sprintf("%s: retCode=%d %s", Name, result.RetCode, result.RetMsg)))
	}

	markets := make(map[string]string)
	for _, inst := range result.Result.List {
		if inst.Status != "Trading" || inst.QuoteCoin != c.quote {
			continue
		}
		markets[inst.BaseCoin] = inst.Symbol
	}

	c.mu.Lock()
	c.markets = markets
	c.mu.Unlock()

	c.logger.Debug(ctx, "markets loaded", "exchange", Name, "pairs", len(markets))
	return nil
}

// Supports reports whether the asset trades against the quote currency.
func (c *Client) Supports(asset string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.markets[asset]
	return ok
}

type tickerList struct {
	List []struct {
		Symbol     string `json:"symbol"`
		LastPrice  string `json:"lastPrice"`
		Volume24h  string `json:"volume24h"`   // base volume
		Turnover24 string `json:"turnover24h"` // quote volume
	} `json:"list"`
}

// FetchTicker fetches the 24h snapshot for the asset.
func (c *Client) FetchTicker(ctx context.Context, asset string) (domain.Ticker, error) {
	c.mu.RLock()
	symbol, ok := c.markets[asset]
	c.mu.RUnlock()
	if !ok {
		return domain.Ticker{}, apperror.New(apperror.CodeUnsupportedMarket,
			apperror.WithContext(fmt.Sprintf("%s: %s/%s", Name, asset, c.quote)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Ticker{}, err
	}

	return c.breaker.Execute(func() (domain.Ticker, error) {
		var result envelope[tickerList]
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "tickers"),
				httpclient.NewLabel("symbol", symbol),
			),
		).
			SetQueryParam("category", categorySpot).
			SetQueryParam("symbol", symbol).
			SetResult(&result).
			Get(ctx, tickersEndpoint)
		if err != nil {
			return domain.Ticker{}, apperror.External(apperror.CodeTickerFetchFailed, Name, err)
		}
		if resp.IsError() || result.RetCode != 0 {
			return domain.Ticker{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithContext(fmt.Sprintf("%s: retCode=%d %s", Name, result.RetCode, result.RetMsg)))
		}
		if len(result.Result.List) == 0 {
			return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
				apperror.WithContext(fmt.Sprintf("%s: empty ticker list for %s", Name, symbol)))
		}

		t := result.Result.List[0]
		last, err := decimal.NewFromString(t.LastPrice)
		if err != nil {
			return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
				apperror.WithContext(fmt.Sprintf("%s: lastPrice %q", Name, t.LastPrice)))
		}
		quoteVol, err := decimal.NewFromString(t.Turnover24)
		if err != nil {
			quoteVol = decimal.Zero
		}
		baseVol, err := decimal.NewFromString(t.Volume24h)
		if err != nil {
			baseVol = decimal.Zero
		}

		return domain.Ticker{Last: last, QuoteVolume: quoteVol, BaseVolume: baseVol}, nil
	})
}
