// Package app contains the arbitrage application services.
package app

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
	marketdata "github.com/arbitrack/arbitrack/business/marketdata/domain"
	"github.com/arbitrack/arbitrack/internal/logger"
)

// Detector finds cross-exchange spreads in one cycle's quotes.
type Detector struct {
	minProfitPct decimal.Decimal
	logger       logger.LoggerInterface
}

// NewDetector creates a detector with the given profitability threshold,
// expressed in percent (0.5 means 0.5%).
func NewDetector(minProfitPct decimal.Decimal, log logger.LoggerInterface) *Detector {
	return &Detector{
		minProfitPct: minProfitPct,
		logger:       log,
	}
}

// Detect builds the ranked opportunity list for one scan cycle. An asset
// yields at most one opportunity: its single highest and lowest quote. An
// asset quoted by fewer than two venues, or whose spread falls below the
// threshold, yields none. The result is ordered by profitability descending,
// asset symbol ascending on ties.
func (d *Detector) Detect(quotes map[string][]marketdata.Quote, exchangeCount, scannedPairs int, at time.Time) domain.ScanResult {
	opportunities := make([]domain.Opportunity, 0, len(quotes))

	for coin, qs := range quotes {
		if len(qs) < 2 {
			continue
		}

		high, low := spread(qs)
		if !low.Price.IsPositive() {
			continue
		}

		profitPct := high.Price.Sub(low.Price).Div(low.Price).Mul(decimal.NewFromInt(100))
		if profitPct.LessThan(d.minProfitPct) {
			continue
		}

		opportunities = append(opportunities, domain.NewOpportunity(coin, high, low, at))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		cmp := opportunities[i].ProfitPercentage.Cmp(opportunities[j].ProfitPercentage)
		if cmp != 0 {
			return cmp > 0
		}
		return opportunities[i].Coin < opportunities[j].Coin
	})

	return domain.ScanResult{
		Opportunities: opportunities,
		Timestamp:     at.UnixMilli(),
		ExchangeCount: exchangeCount,
		ScannedPairs:  scannedPairs,
	}
}

// spread picks the highest- and lowest-priced quote. On equal prices the
// first-seen quote wins.
func spread(qs []marketdata.Quote) (high, low marketdata.Quote) {
	high, low = qs[0], qs[0]
	for _, q := range qs[1:] {
		if q.Price.GreaterThan(high.Price) {
			high = q
		}
		if q.Price.LessThan(low.Price) {
			low = q
		}
	}
	return high, low
}
