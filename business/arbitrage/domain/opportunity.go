// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	marketdata "github.com/arbitrack/arbitrack/business/marketdata/domain"
)

// Rounding scales for the external payload. Prices keep full crypto
// precision, percentages and money amounts are reported in cents.
const (
	PriceScale  = 8
	PctScale    = 2
	AmountScale = 2
)

// Opportunity is a detected cross-exchange spread on one asset.
type Opportunity struct {
	Coin             string          `json:"coin"`
	HighestExchange  string          `json:"highestExchange"`
	LowestExchange   string          `json:"lowestExchange"`
	HighestPrice     decimal.Decimal `json:"highestPrice"`
	LowestPrice      decimal.Decimal `json:"lowestPrice"`
	ProfitPercentage decimal.Decimal `json:"profitPercentage"`
	VolumeHighest    decimal.Decimal `json:"volumeHighest"`
	VolumeLowest     decimal.Decimal `json:"volumeLowest"`
	MaxTradeSize     decimal.Decimal `json:"maxTradeSize"`
	PotentialProfit  decimal.Decimal `json:"potentialProfit"`
	Timestamp        int64           `json:"timestamp"` // epoch milliseconds
}

// NewOpportunity builds an Opportunity from the high- and low-priced quotes
// of one asset. The trade is buy on the low side, sell on the high side;
// tradable size is capped by the thinner of the two books.
func NewOpportunity(coin string, high, low marketdata.Quote, at time.Time) Opportunity {
	profitPct := high.Price.Sub(low.Price).Div(low.Price).Mul(decimal.NewFromInt(100))
	maxTradeSize := decimal.Min(high.Volume, low.Volume)
	potentialProfit := maxTradeSize.Mul(profitPct).Div(decimal.NewFromInt(100))

	return Opportunity{
		Coin:             coin,
		HighestExchange:  high.Exchange,
		LowestExchange:   low.Exchange,
		HighestPrice:     high.Price.Round(PriceScale),
		LowestPrice:      low.Price.Round(PriceScale),
		ProfitPercentage: profitPct.Round(PctScale),
		VolumeHighest:    high.Volume.Round(AmountScale),
		VolumeLowest:     low.Volume.Round(AmountScale),
		MaxTradeSize:     maxTradeSize.Round(AmountScale),
		PotentialProfit:  potentialProfit.Round(AmountScale),
		Timestamp:        at.UnixMilli(),
	}
}

// SizedOpportunity is an Opportunity sized against a notional investment.
type SizedOpportunity struct {
	Opportunity

	Investment      decimal.Decimal `json:"investment"`
	SizedAmount     decimal.Decimal `json:"sizedAmount"`
	ProjectedProfit decimal.Decimal `json:"projectedProfit"`
}

// ScanResult is one completed scan cycle: the ranked opportunity list plus
// cycle metadata.
type ScanResult struct {
	Opportunities []Opportunity `json:"opportunities"`
	Timestamp     int64         `json:"timestamp"`
	ExchangeCount int           `json:"exchangeCount"`
	ScannedPairs  int           `json:"scannedPairs"`
}

// RefreshTiming describes the warm-refresh schedule, epoch milliseconds.
type RefreshTiming struct {
	LastRefreshTime int64 `json:"lastRefreshTime"`
	NextRefreshTime int64 `json:"nextRefreshTime"`
}
