package app

import (
	"github.com/shopspring/decimal"
)

// Key identifies a cached payload. Keys are typed so the scheduler's
// stale-fallback map and the single-flight group share one vocabulary.
type Key string

const (
	rankedKey Key = "arbitrage:ranked"
	timingKey Key = "arbitrage:refresh_timing"

	sizedKeyPrefix = "arbitrage:sized:"
)

// RankedKey returns the key of the ranked opportunity payload.
func RankedKey() Key {
	return rankedKey
}

// TimingKey returns the key of the persisted refresh timing payload.
func TimingKey() Key {
	return timingKey
}

// SizedKey returns the key of a sized payload. The investment is rounded to
// whole units so near-identical amounts share one cache entry.
func SizedKey(investment decimal.Decimal) Key {
	return Key(sizedKeyPrefix + investment.Round(0).String())
}
