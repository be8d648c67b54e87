// Package kraken implements the Kraken spot REST adapter.
//
// Kraken differs from the other venues in two ways: pair catalog entries use
// internal names (XBT for BTC, XDG for DOGE) and the ticker endpoint reports
// only base-currency volume, so the quote-currency turnover is derived from
// base volume times last price downstream.
package kraken

import (
	"context"
	"fmt"
	"strings"
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
	Name = "kraken"

	BaseAPIURL = "https://api.kraken.com"

	assetPairsEndpoint = "/0/public/AssetPairs"
	tickerEndpoint     = "/0/public/Ticker"

	httpTimeout = 10 * time.Second
)

// altnames maps Kraken's internal asset names to the common symbols.
var altnames = map[string]string{
	"XBT": "BTC",
	"XDG": "DOGE",
}

// Config holds Kraken client settings.
type Config struct {
	BaseURL           string
	QuoteCurrency     string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client fetches Kraken spot tickers.
type Client struct {
	client  httpclient.Client
	quote   string
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker[domain.Ticker]
	logger  logger.LoggerInterface

	mu      sync.RWMutex
	markets map[string]string // asset -> pair key (BTC -> XBTUSDT)
}

// New creates a Kraken client.
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

type assetPairsResponse struct {
	Error  []string            `json:"error"`
	Result map[string]struct {
		WSName string `json:"wsname"` // e.g. "XBT/USDT"
		Status string `json:"status"`
	} `json:"result"`
}

// LoadMarkets fetches the pair catalog and indexes online pairs against the
// configured quote currency, translating Kraken's internal asset names.
func (c *Client) LoadMarkets(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result assetPairsResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "AssetPairs")),
	).
		SetResult(&result).
		Get(ctx, assetPairsEndpoint)
	if err != nil {
		return apperror.External(apperror.CodeMarketsLoadFailed, Name, err)
	}
	if resp.IsError() || len(result.Error) > 0 {
		return apperror.New(apperror.CodeMarketsLoadFailed,
			apperror.WithContext(fmt.Sprintf("%s: %s", Name, strings.Join(result.Error, "; "))))
	}

	markets := make(map[string]string)
	for pairKey, pair := range result.Result {
		if pair.Status != "online" {
			continue
		}
		base, quote, ok := strings.Cut(pair.WSName, "/")
		if !ok || quote != c.quote {
			continue
		}
		if common, aliased := altnames[base]; aliased {
			base = common
		}
		markets[base] = pairKey
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
	Error  []string `json:"error"`
	Result map[string]struct {
		Close  []string `json:"c"` // [price, lot volume]
		Volume []string `json:"v"` // [today, last 24h] in base currency
	} `json:"result"`
}

// FetchTicker fetches the 24h snapshot for the asset. Only base volume is
// available; the quote-side turnover is derived by the caller.
func (c *Client) FetchTicker(ctx context.Context, asset string) (domain.Ticker, error) {
	c.mu.RLock()
	pairKey, ok := c.markets[asset]
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
				httpclient.NewLabel("endpoint", "Ticker"),
				httpclient.NewLabel("pair", pairKey),
			),
		).
			SetQueryParam("pair", pairKey).
			SetResult(&result).
			Get(ctx, tickerEndpoint)
		if err != nil {
			return domain.Ticker{}, apperror.External(apperror.CodeTickerFetchFailed, Name, err)
		}
		if resp.IsError() || len(result.Error) > 0 {
			return domain.Ticker{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithContext(fmt.Sprintf("%s: %s", Name, strings.Join(result.Error, "; "))))
		}

		// The result key may be the canonical pair name rather than the
		// requested one; there is exactly one entry either way.
		for _, t := range result.Result {
			if len(t.Close) == 0 || len(t.Volume) < 2 {
				break
			}
			last, err := decimal.NewFromString(t.Close[0])
			if err != nil {
				return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
					apperror.WithContext(fmt.Sprintf("%s: close %q", Name, t.Close[0])))
			}
			baseVol, err := decimal.NewFromString(t.Volume[1])
			if err != nil {
				baseVol = decimal.Zero
			}
			return domain.Ticker{Last: last, BaseVolume: baseVol}, nil
		}

		return domain.Ticker{}, apperror.New(apperror.CodeMalformedTicker,
			apperror.WithContext(fmt.Sprintf("%s: empty ticker result for %s", Name, pairKey)))
	})
}
