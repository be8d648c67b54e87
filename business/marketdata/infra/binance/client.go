// Package binance implements the Binance spot REST adapter.
package binance

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
	Name = "binance"

	BaseAPIURL = "https://api.binance.com"

	exchangeInfoEndpoint = "/api/v3/exchangeInfo"
	tickerEndpoint       = "/api/v3/ticker/24hr"

	httpTimeout = 10 * time.Second
)

// Config holds Binance client settings.
type Config struct {
	BaseURL           string
	QuoteCurrency     string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client fetches Binance spot tickers through the shared instrumented stack.
type Client struct {
	client  httpclient.Client
	quote   string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[domain.Ticker]
	logger  logger.LoggerInterface

	mu      sync.RWMutex
	markets map[string]string // asset symbol -> venue symbol (BTC -> BTCUSDT)
}

// New creates a Binance client.
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

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// LoadMarkets fetches the exchange catalog and indexes tradable pairs
// against the configured quote currency.
func (c *Client) LoadMarkets(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result exchangeInfoResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "exchangeInfo")),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetResult(&result).
		Get(ctx, exchangeInfoEndpoint)
	if err != nil {
		return apperror.External(apperror.CodeMarketsLoadFailed, Name, err)
	}
	if resp.IsError() {
		return apperror.New(apperror.CodeMarketsLoadFailed,
			apperror.WithContext(fmt.Sprintf("%s: HTTP %d", Name, resp.StatusCode)))
	}

	markets := make(map[string]string)
	for _, s := range result.Symbols {
		if s.Status != "TRADING" || s.QuoteAsset != c.quote {
			continue
		}
		markets[s.BaseAsset] = s.Symbol
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

type tickerResponse struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	Volume      string `json:"volume"`      // base volume
	QuoteVolume string `json:"quoteVolume"` // quote volume
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
		var result tickerResponse
		resp, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("endpoint", "ticker24h"),
				httpclient.NewLabel("symbol", symbol),
			),
			httpclient.WithResponseErrorHandler(errorHandler),
		).
			SetQueryParam("symbol", symbol).
			SetResult(&result).
			Get(ctx, tickerEndpoint)
		if err != nil {
			return domain.Ticker{}, apperror.External(apperror.CodeTickerFetchFailed, Name, err)
		}
		if resp.IsError() {
			return domain.Ticker{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithContext(fmt.Sprintf("%s: HTTP %d", Name, resp.StatusCode)))
		}

		return parseTicker(result)
	})
}

func parseTicker(r tickerResponse) (domain.Ticker, error) {
	last, err := decimal.NewFromString(r.LastPrice)
	if err != nil {
		return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
			apperror.WithContext(fmt.Sprintf("%s: lastPrice %q", Name, r.LastPrice)))
	}
	quoteVol, err := decimal.NewFromString(r.QuoteVolume)
	if err != nil {
		quoteVol = decimal.Zero
	}
	baseVol, err := decimal.NewFromString(r.Volume)
	if err != nil {
		baseVol = decimal.Zero
	}

	return domain.Ticker{Last: last, QuoteVolume: quoteVol, BaseVolume: baseVol}, nil
}

// APIError is an error payload returned by the Binance API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
