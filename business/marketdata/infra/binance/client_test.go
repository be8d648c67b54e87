package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbitrack/arbitrack/internal/apperror"
	"github.com/arbitrack/arbitrack/internal/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(exchangeInfoEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbols": [
				{"symbol": "BTCUSDT", "status": "TRADING", "baseAsset": "BTC", "quoteAsset": "USDT"},
				{"symbol": "ETHUSDT", "status": "TRADING", "baseAsset": "ETH", "quoteAsset": "USDT"},
				{"symbol": "ETHBTC", "status": "TRADING", "baseAsset": "ETH", "quoteAsset": "BTC"},
				{"symbol": "LUNAUSDT", "status": "BREAK", "baseAsset": "LUNA", "quoteAsset": "USDT"}
			]
		}`))
	})
	mux.HandleFunc(tickerEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code": -1121, "msg": "Invalid symbol."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "BTCUSDT",
			"lastPrice": "50000.12345678",
			"volume": "12000.5",
			"quoteVolume": "600000000.99"
		}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	c, err := New(Config{
		BaseURL:           baseURL,
		QuoteCurrency:     "USDT",
		RequestsPerMinute: 6000,
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestLoadMarketsIndexesTradablePairs(t *testing.T) {
	server := newTestServer(t)
	c := newTestClient(t, server.URL)

	if err := c.LoadMarkets(context.Background()); err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}

	if !c.Supports("BTC") || !c.Supports("ETH") {
		t.Error("tradable USDT pairs must be supported")
	}
	if c.Supports("LUNA") {
		t.Error("non-trading pair must not be supported")
	}
	if c.Supports("XRP") {
		t.Error("unlisted asset must not be supported")
	}
}

func TestFetchTickerParsesSnapshot(t *testing.T) {
	server := newTestServer(t)
	c := newTestClient(t, server.URL)

	ctx := context.Background()
	if err := c.LoadMarkets(ctx); err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}

	ticker, err := c.FetchTicker(ctx, "BTC")
	if err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}

	if got := ticker.Last.String(); got != "50000.12345678" {
		t.Errorf("last = %s, want 50000.12345678", got)
	}
	if got := ticker.QuoteVolume.String(); got != "600000000.99" {
		t.Errorf("quoteVolume = %s, want 600000000.99", got)
	}
	if got := ticker.Volume().String(); got != "600000000.99" {
		t.Errorf("Volume() = %s, want the reported quote volume", got)
	}
}

func TestFetchTickerUnknownAsset(t *testing.T) {
	server := newTestServer(t)
	c := newTestClient(t, server.URL)

	if err := c.LoadMarkets(context.Background()); err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}

	_, err := c.FetchTicker(context.Background(), "XRP")
	if err == nil {
		t.Fatal("FetchTicker for an unlisted asset must fail")
	}
	if got := apperror.GetCode(err); got != apperror.CodeUnsupportedMarket {
		t.Errorf("error code = %s, want %s", got, apperror.CodeUnsupportedMarket)
	}
}

func TestLoadMarketsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	err := c.LoadMarkets(context.Background())
	if err == nil {
		t.Fatal("LoadMarkets against a failing venue must error")
	}
	if got := apperror.GetCode(err); got != apperror.CodeMarketsLoadFailed {
		t.Errorf("error code = %s, want %s", got, apperror.CodeMarketsLoadFailed)
	}
}
