// Package gateio implements the Gate.io v4 spot REST adapter.
package gateio

import (
	"context"
	"encoding/json"
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
	Name = "gateio"

	BaseAPIURL = "https://api.gateio.ws"

	currencyPairsEndpoint = "/api/v4/spot/currency_pairs"
	tickersEndpoint       = "/api/v4/spot/tickers"

	httpTimeout = 10 * time.Second
)

// Config holds Gate.io client settings.
type Config struct {
	BaseURL           string
	QuoteCurrency     string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client fetches Gate.io spot tickers.
type Client struct {
	client  httpclient.Client
	quote   string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[domain.Ticker]
	logger  logger.LoggerInterface

	mu      sync.RWMutex
	markets map[string]string // asset -> currency pair id (BTC -> BTC_USDT)
}

// New creates a Gate.io client.
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

type currencyPair struct {
	ID          string `json:"id"`
	Base        string `json:"base"`
	Quote       string `json:"quote"`
	TradeStatus string `json:"trade_status"`
}

// LoadMarkets fetches the currency pair catalog.
func (c *Client) LoadMarkets(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result []currencyPair
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "currency_pairs")),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetResult(&result).
		Get(ctx, currencyPairsEndpoint)
	if err != nil {
		return apperror.External(apperror.CodeMarketsLoadFailed, Name, err)
	}
	if resp.IsError() {
		return apperror.New(apperror.CodeMarketsLoadFailed,
			apperror.WithContext(fmt.Sprintf("%s: HTTP %d", Name, resp.StatusCode)))
	}

	markets := make(map[string]string)
	for _, p := range result {
		if p.TradeStatus != "tradable" || p.Quote != c.quote {
			continue
		}
		markets[p.Base] = p.ID
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
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
	BaseVolume   string `json:"base_volume"`
	QuoteVolume  string `json:"quote_volume"`
}

// FetchTicker fetches the 24h snapshot for the asset.
func (c *Client) FetchTicker(ctx context.Context, asset string) (domain.Ticker, error) {
	c.mu.RLock()
	pairID, ok := c.markets[asset]
	c.mu.RUnlock()
	if !ok {
		return domain.Ticker{}, apperror.New(apperror.CodeUnsupportedMarket,
			apperror.WithContext(fmt.Sprintf("%s: %s/%s", Name, asset, c.quote)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Ticker{}, err
	}

	return c.breaker.Execute(func() (domain.Ticker, error) {
		var result []ticker
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "tickers"),
				httpclient.NewLabel("currency_pair", pairID),
			),
			httpclient.WithResponseErrorHandler(errorHandler),
		).
			SetQueryParam("currency_pair", pairID).
			SetResult(&result).
			Get(ctx, tickersEndpoint)
		if err != nil {
			return domain.Ticker{}, apperror.External(apperror.CodeTickerFetchFailed, Name, err)
		}
		if resp.IsError() {
			return domain.Ticker{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithContext(fmt.Sprintf("%s: HTTP %d", Name, resp.StatusCode)))
		}
		if len(result) == 0 {
			return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
				apperror.WithContext(fmt.Sprintf("%s: empty ticker list for %s", Name, pairID)))
		}

		t := result[0]
		last, err := decimal.NewFromString(t.Last)
		if err != nil {
			return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
				apperror.WithContext(fmt.Sprintf("%s: last %q", Name, t.Last)))
		}
		quoteVol, err := decimal.NewFromString(t.QuoteVolume)
		if err != nil {
			quoteVol = decimal.Zero
		}
		baseVol, err := decimal.NewFromString(t.BaseVolume)
		if err != nil {
			baseVol = decimal.Zero
		}

		return domain.Ticker{Last: last, QuoteVolume: quoteVol, BaseVolume: baseVol}, nil
	})
}

// APIError is the Gate.io error payload.
type APIError struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateio API error %s: %s", e.Label, e.Message)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Label != "" {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
