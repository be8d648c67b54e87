// Package okx implements the OKX v5 spot REST adapter.
package okx

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
	Name = "okx"

	BaseAPIURL = "https://www.okx.com"

	instrumentsEndpoint = "/api/v5/public/instruments"
	tickerEndpoint      = "/api/v5/market/ticker"

	httpTimeout = 10 * time.Second
)

// Config holds OKX client settings.
type Config struct {
	BaseURL           string
	QuoteCurrency     string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client fetches OKX spot tickers.
type Client struct {
	client  httpclient.Client
	quote   string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[domain.Ticker]
	logger  logger.LoggerInterface

	mu      sync.RWMutex
	markets map[string]string // asset -> instId (BTC -> BTC-USDT)
}

// New creates an OKX client.
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

// envelope is the OKX response wrapper. Code "0" means success.
type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

type instrument struct {
	InstID   string `json:"instId"`
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	State    string `json:"state"`
}

// LoadMarkets fetches the spot instrument catalog.
func (c *Client) LoadMarkets(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result envelope[instrument]
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "instruments")),
	).
		SetQueryParam("instType", "SPOT").
		SetResult(&result).
		Get(ctx, instrumentsEndpoint)
	if err != nil {
		return apperror.External(apperror.CodeMarketsLoadFailed, Name, err)
	}
	if resp.IsError() || result.Code != "0" {
		return apperror.New(apperror.CodeMarketsLoadFailed,
			apperror.WithContext(fmt.Sprintf("%s: code=%s %s", Name, result.Code, result.Msg)))
	}

	markets := make(map[string]string)
	for _, inst := range result.Data {
		if inst.State != "live" || inst.QuoteCcy != c.quote {
			continue
		}
		markets[inst.BaseCcy] = inst.InstID
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

type ticker struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	Vol24h    string `json:"vol24h"`    // base volume
	VolCcy24h string `json:"volCcy24h"` // quote volume
}

// FetchTicker fetches the 24h snapshot for the asset.
func (c *Client) FetchTicker(ctx context.Context, asset string) (domain.Ticker, error) {
	c.mu.RLock()
	instID, ok := c.markets[asset]
	c.mu.RUnlock()
	if !ok {
		return domain.Ticker{}, apperror.New(apperror.CodeUnsupportedMarket,
			apperror.WithContext(fmt.Sprintf("%s: %s/%s", Name, asset, c.quote)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Ticker{}, err
	}

	return c.breaker.Execute(func() (domain.Ticker, error) {
		var result envelope[ticker]
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "ticker"),
				httpclient.NewLabel("instId", instID),
			),
		).
			SetQueryParam("instId", instID).
			SetResult(&result).
			Get(ctx, tickerEndpoint)
		if err != nil {
			return domain.Ticker{}, apperror.External(apperror.CodeTickerFetchFailed, Name, err)
		}
		if resp.IsError() || result.Code != "0" || len(result.Data) == 0 {
			return domain.Ticker{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithContext(fmt.Sprintf("%s: code=%s %s", Name, result.Code, result.Msg)))
		}

		t := result.Data[0]
		last, err := decimal.NewFromString(t.Last)
		if err != nil {
			return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
				apperror.WithContext(fmt.Sprintf("%s: last %q", Name, t.Last)))
		}
		quoteVol, err := decimal.NewFromString(t.VolCcy24h)
		if err != nil {
			quoteVol = decimal.Zero
		}
		baseVol, err := decimal.NewFromString(t.Vol24h)
		if err != nil {
			baseVol = decimal.Zero
		}

		return domain.Ticker{Last: last, QuoteVolume: quoteVol, BaseVolume: baseVol}, nil
	})
}
