// Package domain contains the market data domain model.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a raw 24h market snapshot as reported by a venue.
type Ticker struct {
	Last        decimal.Decimal // last traded price
	QuoteVolume decimal.Decimal // 24h volume in the quote currency
	BaseVolume  decimal.Decimal // 24h volume in the base currency
}

// Volume returns the 24h turnover in the quote currency. Venues that only
// report base volume get it derived from base volume times last price.
func (t Ticker) Volume() decimal.Decimal {
	if t.QuoteVolume.IsPositive() {
		return t.QuoteVolume
	}
	return t.BaseVolume.Mul(t.Last)
}

// IsUsable reports whether the snapshot carries a tradable price.
func (t Ticker) IsUsable() bool {
	return t.Last.IsPositive()
}

// Quote is one venue's priced view of an asset during a scan cycle.
// Quotes are immutable snapshots; they are discarded after the cycle.
type Quote struct {
	Exchange string
	Asset    string
	Price    decimal.Decimal
	Volume   decimal.Decimal
	At       time.Time
}

// NewQuote builds a Quote from a venue ticker.
func NewQuote(exchange, asset string, t Ticker, at time.Time) Quote {
	return Quote{
		Exchange: exchange,
		Asset:    asset,
		Price:    t.Last,
		Volume:   t.Volume(),
		At:       at,
	}
}
