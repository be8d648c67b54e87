// Package kucoin implements the KuCoin spot REST adapter.
package kucoin

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
	Name = "kucoin"

	BaseAPIURL = "https://api.kucoin.com"

	symbolsEndpoint = "/api/v2/symbols"
	statsEndpoint   = "/api/v1/market/stats"

	codeOK = "200000"

	httpTimeout = 10 * time.Second
)

// Config holds KuCoin client settings.
type Config struct {
	BaseURL           string
	QuoteCurrency     string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client fetches KuCoin spot tickers.
type Client struct {
	client  httpclient.Client
	quote   string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[domain.Ticker]
	logger  logger.LoggerInterface

	mu      sync.RWMutex
	markets map[string]string // asset -> venue symbol (BTC -> BTC-USDT)
}

// New creates a KuCoin client.
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

// envelope is the KuCoin response wrapper. Code "200000" means success.
type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

type symbolInfo struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	EnableTrading bool   `json:"enableTrading"`
}

// LoadMarkets fetches the symbol catalog.
func (c *Client) LoadMarkets(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result envelope[[]symbolInfo]
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "symbols")),
	).
		SetResult(&result).
		Get(ctx, symbolsEndpoint)
	if err != nil {
		return apperror.External(apperror.CodeMarketsLoadFailed, Name, err)
	}
	if resp.IsError() || result.Code != codeOK {
		return apperror.New(apperror.CodeMarketsLoadFailed,
			apperror.WithContext(fmt.Sprintf("%s: code=%s %s", Name, result.Code, result.Msg)))
	}

	markets := make(map[string]string)
	for _, s := range result.Data {
		if !s.EnableTrading || s.QuoteCurrency != c.quote {
			continue
		}
		markets[s.BaseCurrency] = s.Symbol
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

type marketStats struct {
	Symbol   string `json:"symbol"`
	Last     string `json:"last"`
	Vol      string `json:"vol"`      // base volume
	VolValue string `json:"volValue"` // quote volume
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
		var result envelope[marketStats]
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "market-stats"),
				httpclient.NewLabel("symbol", symbol),
			),
		).
			SetQueryParam("symbol", symbol).
			SetResult(&result).
			Get(ctx, statsEndpoint)
		if err != nil {
			return domain.Ticker{}, apperror.External(apperror.CodeTickerFetchFailed, Name, err)
		}
		if resp.IsError() || result.Code != codeOK {
			return domain.Ticker{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithContext(fmt.Sprintf("%s: code=%s %s", Name, result.Code, result.Msg)))
		}

		t := result.Data
		last, err := decimal.NewFromString(t.Last)
		if err != nil {
			return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
				apperror.WithContext(fmt.Sprintf("%s: last %q", Name, t.Last)))
		}
		quoteVol, err := decimal.NewFromString(t.VolValue)
		if err != nil {
			quoteVol = decimal.Zero
		}
		baseVol, err := decimal.NewFromString(t.Vol)
		if err != nil {
			baseVol = decimal.Zero
		}

		return domain.Ticker{Last: last, QuoteVolume: quoteVol, BaseVolume: baseVol}, nil
	})
}
