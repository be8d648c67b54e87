package app

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
)

func newTestSizer() *Sizer {
	return NewSizer(decimal.NewFromInt(100000))
}

func testOpportunity() domain.Opportunity {
	return domain.Opportunity{
		Coin:             "BTC",
		HighestExchange:  "kraken",
		LowestExchange:   "binance",
		HighestPrice:     decimal.NewFromInt(50600),
		LowestPrice:      decimal.NewFromInt(50000),
		ProfitPercentage: decimal.RequireFromString("1.20"),
		MaxTradeSize:     decimal.NewFromInt(300000),
	}
}

func TestSizeCapsAtInvestment(t *testing.T) {
	s := newTestSizer()

	sized := s.Size(testOpportunity(), decimal.NewFromInt(50000))

	if got := sized.SizedAmount.StringFixed(2); got != "50000.00" {
		t.Errorf("sizedAmount = %s, want 50000.00", got)
	}
	if got := sized.ProjectedProfit.StringFixed(2); got != "600.00" {
		t.Errorf("projectedProfit = %s, want 600.00", got)
	}
}

func TestSizeCapsAtMaxTradeSize(t *testing.T) {
	s := newTestSizer()

	sized := s.Size(testOpportunity(), decimal.NewFromInt(500000))

	if got := sized.SizedAmount.StringFixed(2); got != "300000.00" {
		t.Errorf("sizedAmount = %s, want 300000.00 (capped by tradable size)", got)
	}
	if got := sized.ProjectedProfit.StringFixed(2); got != "3600.00" {
		t.Errorf("projectedProfit = %s, want 3600.00", got)
	}
}

func TestSizeNonPositiveInvestmentUsesDefault(t *testing.T) {
	s := newTestSizer()

	tests := []struct {
		name       string
		investment decimal.Decimal
	}{
		{"zero", decimal.Zero},
		{"negative", decimal.NewFromInt(-5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sized := s.Size(testOpportunity(), tt.investment)
			if got := sized.Investment.StringFixed(0); got != "100000" {
				t.Errorf("investment = %s, want default 100000", got)
			}
		})
	}
}

func TestParseInvestment(t *testing.T) {
	s := newTestSizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"valid", "250000", "250000"},
		{"decimal", "1234.56", "1234.56"},
		{"non-numeric", "abc", "100000"},
		{"empty", "", "100000"},
		{"negative", "-100", "100000"},
		{"zero", "0", "100000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ParseInvestment(tt.raw).String(); got != tt.want {
				t.Errorf("ParseInvestment(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSizeAllPreservesOrder(t *testing.T) {
	s := newTestSizer()

	opps := []domain.Opportunity{
		{Coin: "ADA", ProfitPercentage: decimal.NewFromInt(2), MaxTradeSize: decimal.NewFromInt(200000)},
		{Coin: "BTC", ProfitPercentage: decimal.NewFromInt(1), MaxTradeSize: decimal.NewFromInt(300000)},
	}

	sized := s.SizeAll(opps, decimal.NewFromInt(100000))

	if len(sized) != 2 {
		t.Fatalf("expected 2 sized opportunities, got %d", len(sized))
	}
	if sized[0].Coin != "ADA" || sized[1].Coin != "BTC" {
		t.Errorf("order = %s,%s, want ADA,BTC", sized[0].Coin, sized[1].Coin)
	}
}
