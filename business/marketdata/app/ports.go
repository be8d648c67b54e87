// Package app contains the market data application services.
package app

import (
	"context"

	"github.com/arbitrack/arbitrack/business/marketdata/domain"
)

// ExchangeClient is the capability interface every venue adapter implements.
// Adapters own their market catalog, rate limiting, and error translation;
// no venue-specific behavior leaks above this interface.
type ExchangeClient interface {
	// Name returns the venue identifier (e.g., "binance").
	Name() string

	// LoadMarkets fetches the venue's market catalog so Supports can answer
	// without further network calls. Called once during pool initialization.
	LoadMarkets(ctx context.Context) error

	// Supports reports whether the venue lists the asset against the
	// configured quote currency.
	Supports(asset string) bool

	// FetchTicker returns the venue's current 24h snapshot for the asset.
	FetchTicker(ctx context.Context, asset string) (domain.Ticker, error)
}
