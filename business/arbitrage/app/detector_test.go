package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	marketdata "github.com/arbitrack/arbitrack/business/marketdata/domain"
	"github.com/arbitrack/arbitrack/internal/logger"
)

func quote(exchange string, price, volume float64) marketdata.Quote {
	return marketdata.Quote{
		Exchange: exchange,
		Price:    decimal.NewFromFloat(price),
		Volume:   decimal.NewFromFloat(volume),
	}
}

func newTestDetector() *Detector {
	return NewDetector(decimal.NewFromFloat(0.5), logger.NewNop())
}

func TestDetectComputesSpreadFields(t *testing.T) {
	d := newTestDetector()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	quotes := map[string][]marketdata.Quote{
		"BTC": {
			quote("binance", 50000, 300000),
			quote("kraken", 50600, 450000),
		},
	}

	result := d.Detect(quotes, 2, 1, at)

	if len(result.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(result.Opportunities))
	}

	opp := result.Opportunities[0]
	if opp.Coin != "BTC" {
		t.Errorf("coin = %s, want BTC", opp.Coin)
	}
	if opp.HighestExchange != "kraken" || opp.LowestExchange != "binance" {
		t.Errorf("sides = %s/%s, want kraken/binance", opp.HighestExchange, opp.LowestExchange)
	}
	if got := opp.ProfitPercentage.StringFixed(2); got != "1.20" {
		t.Errorf("profitPercentage = %s, want 1.20", got)
	}
	if got := opp.MaxTradeSize.StringFixed(2); got != "300000.00" {
		t.Errorf("maxTradeSize = %s, want 300000.00", got)
	}
	if got := opp.PotentialProfit.StringFixed(2); got != "3600.00" {
		t.Errorf("potentialProfit = %s, want 3600.00", got)
	}
	if opp.Timestamp != at.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", opp.Timestamp, at.UnixMilli())
	}
}

func TestDetectScanResultMetadata(t *testing.T) {
	d := newTestDetector()
	at := time.Now()

	quotes := map[string][]marketdata.Quote{
		"ETH": {
			quote("binance", 3000, 500000),
			quote("okx", 3100, 400000),
		},
	}

	result := d.Detect(quotes, 5, 20, at)

	if result.ExchangeCount != 5 {
		t.Errorf("exchangeCount = %d, want 5", result.ExchangeCount)
	}
	if result.ScannedPairs != 20 {
		t.Errorf("scannedPairs = %d, want 20", result.ScannedPairs)
	}
	if result.Timestamp != at.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", result.Timestamp, at.UnixMilli())
	}
}

func TestDetectSkipsSingleQuoteAssets(t *testing.T) {
	d := newTestDetector()

	quotes := map[string][]marketdata.Quote{
		"BTC": {quote("binance", 50000, 300000)},
	}

	result := d.Detect(quotes, 1, 1, time.Now())
	if len(result.Opportunities) != 0 {
		t.Fatalf("expected no opportunities from a single quote, got %d", len(result.Opportunities))
	}
}

func TestDetectDropsBelowThreshold(t *testing.T) {
	d := newTestDetector()

	// 0.4% spread, below the 0.5% threshold.
	quotes := map[string][]marketdata.Quote{
		"BTC": {
			quote("binance", 50000, 300000),
			quote("kraken", 50200, 300000),
		},
	}

	result := d.Detect(quotes, 2, 1, time.Now())
	if len(result.Opportunities) != 0 {
		t.Fatalf("expected spread below threshold to be dropped, got %d opportunities", len(result.Opportunities))
	}
}

func TestDetectThresholdBoundaryIncluded(t *testing.T) {
	d := newTestDetector()

	// Exactly 0.5%.
	quotes := map[string][]marketdata.Quote{
		"BTC": {
			quote("binance", 50000, 300000),
			quote("kraken", 50250, 300000),
		},
	}

	result := d.Detect(quotes, 2, 1, time.Now())
	if len(result.Opportunities) != 1 {
		t.Fatalf("expected spread at the threshold to be kept, got %d opportunities", len(result.Opportunities))
	}
}

func TestDetectFirstSeenWinsOnEqualPrices(t *testing.T) {
	d := newTestDetector()

	quotes := map[string][]marketdata.Quote{
		"BTC": {
			quote("binance", 50600, 300000),
			quote("kraken", 50600, 400000),
			quote("okx", 50000, 300000),
		},
	}

	result := d.Detect(quotes, 3, 1, time.Now())
	if len(result.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(result.Opportunities))
	}
	if got := result.Opportunities[0].HighestExchange; got != "binance" {
		t.Errorf("highestExchange = %s, want first-seen binance", got)
	}
}

func TestDetectOrdersByProfitThenCoin(t *testing.T) {
	d := newTestDetector()

	quotes := map[string][]marketdata.Quote{
		// 2% spread.
		"ADA": {
			quote("binance", 1.00, 300000),
			quote("kraken", 1.02, 300000),
		},
		// 1% spread.
		"BTC": {
			quote("binance", 50000, 300000),
			quote("kraken", 50500, 300000),
		},
		// 1% spread; ties with BTC, ADA-vs-XRP ordering is alphabetical.
		"XRP": {
			quote("binance", 2.00, 300000),
			quote("okx", 2.02, 300000),
		},
	}

	result := d.Detect(quotes, 3, 3, time.Now())
	if len(result.Opportunities) != 3 {
		t.Fatalf("expected 3 opportunities, got %d", len(result.Opportunities))
	}

	gotOrder := []string{
		result.Opportunities[0].Coin,
		result.Opportunities[1].Coin,
		result.Opportunities[2].Coin,
	}
	wantOrder := []string{"ADA", "BTC", "XRP"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}
}

func TestDetectEmptyInput(t *testing.T) {
	d := newTestDetector()

	result := d.Detect(map[string][]marketdata.Quote{}, 0, 0, time.Now())
	if len(result.Opportunities) != 0 {
		t.Fatalf("expected no opportunities, got %d", len(result.Opportunities))
	}
	if result.Opportunities == nil {
		t.Error("opportunities should be an empty slice, not nil")
	}
}

func TestDetectPriceRounding(t *testing.T) {
	d := newTestDetector()

	quotes := map[string][]marketdata.Quote{
		"SHIB": {
			{Exchange: "binance", Price: decimal.RequireFromString("0.0000123456789"), Volume: decimal.NewFromInt(300000)},
			{Exchange: "okx", Price: decimal.RequireFromString("0.0000125456789"), Volume: decimal.NewFromInt(300000)},
		},
	}

	result := d.Detect(quotes, 2, 1, time.Now())
	if len(result.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(result.Opportunities))
	}

	opp := result.Opportunities[0]
	if got := opp.LowestPrice.Exponent(); got < -8 {
		t.Errorf("lowestPrice kept %d decimal places, want at most 8", -got)
	}
	if got := opp.ProfitPercentage.Exponent(); got < -2 {
		t.Errorf("profitPercentage kept %d decimal places, want at most 2", -got)
	}
}
