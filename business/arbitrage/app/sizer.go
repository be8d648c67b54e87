package app

import (
	"github.com/shopspring/decimal"

	"github.com/arbitrack/arbitrack/business/arbitrage/domain"
)

// Sizer sizes detected opportunities against a notional investment. Sizing
// is pure: it never re-fetches and always operates on one cycle's output.
type Sizer struct {
	defaultInvestment decimal.Decimal
}

// NewSizer creates a sizer. The default investment is applied whenever a
// caller supplies a non-positive or unparsable amount.
func NewSizer(defaultInvestment decimal.Decimal) *Sizer {
	return &Sizer{defaultInvestment: defaultInvestment}
}

// ParseInvestment interprets a caller-supplied investment string. Anything
// non-numeric or non-positive falls back to the default.
func (s *Sizer) ParseInvestment(raw string) decimal.Decimal {
	inv, err := decimal.NewFromString(raw)
	if err != nil || !inv.IsPositive() {
		return s.defaultInvestment
	}
	return inv
}

// Normalize replaces a non-positive investment with the default.
func (s *Sizer) Normalize(investment decimal.Decimal) decimal.Decimal {
	if !investment.IsPositive() {
		return s.defaultInvestment
	}
	return investment
}

// Size sizes one opportunity: the deployable amount is the smaller of the
// investment and the opportunity's tradable size.
func (s *Sizer) Size(opp domain.Opportunity, investment decimal.Decimal) domain.SizedOpportunity {
	investment = s.Normalize(investment)

	sizedAmount := decimal.Min(investment, opp.MaxTradeSize)
	projectedProfit := sizedAmount.Mul(opp.ProfitPercentage).Div(decimal.NewFromInt(100))

	return domain.SizedOpportunity{
		Opportunity:     opp,
		Investment:      investment,
		SizedAmount:     sizedAmount.Round(domain.AmountScale),
		ProjectedProfit: projectedProfit.Round(domain.AmountScale),
	}
}

// SizeAll sizes every opportunity of a cycle, preserving order.
func (s *Sizer) SizeAll(opps []domain.Opportunity, investment decimal.Decimal) []domain.SizedOpportunity {
	sized := make([]domain.SizedOpportunity, len(opps))
	for i, opp := range opps {
		sized[i] = s.Size(opp, investment)
	}
	return sized
}
