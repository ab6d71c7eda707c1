// Package portfolio sizes positions from signal levels and keeps track of
// open positions.
package portfolio

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Sizer turns an entry and stop-loss into a share count.
type Sizer struct {
	Value          decimal.Decimal // portfolio value
	RiskPerTrade   decimal.Decimal // fraction of value risked per trade
	MaxPositionPct decimal.Decimal // cap on one position's value as a fraction of the portfolio
}

// NewSizer builds a Sizer from plain percentages, e.g. (100000, 2, 20).
func NewSizer(value, riskPct, maxPositionPct float64) Sizer {
	hundred := decimal.NewFromInt(100)
	return Sizer{
		Value:          decimal.NewFromFloat(value),
		RiskPerTrade:   decimal.NewFromFloat(riskPct).Div(hundred),
		MaxPositionPct: decimal.NewFromFloat(maxPositionPct).Div(hundred),
	}
}

// PositionSize returns whole shares so that hitting the stop loses at most
// RiskPerTrade of the portfolio, capped at MaxPositionPct of its value.
func (s Sizer) PositionSize(entry, stop float64) int64 {
	e := decimal.NewFromFloat(entry)
	if !e.IsPositive() {
		return 0
	}
	riskPerShare := e.Sub(decimal.NewFromFloat(stop)).Abs()
	if !riskPerShare.IsPositive() {
		return 0
	}

	maxLoss := s.Value.Mul(s.RiskPerTrade)
	size := maxLoss.Div(riskPerShare)

	maxValue := s.Value.Mul(s.MaxPositionPct)
	if size.Mul(e).GreaterThan(maxValue) {
		size = maxValue.Div(e)
	}
	return size.Floor().IntPart()
}

// ValueAtRisk is the historical VaR: the absolute return at the
// (1-confidence) percentile. Fewer than 20 usable returns yield 0.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	clean := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !math.IsNaN(r) {
			clean = append(clean, r)
		}
	}
	if len(clean) < 20 {
		return 0
	}
	sort.Float64s(clean)
	return math.Abs(percentile(clean, (1-confidence)*100))
}

// percentile interpolates linearly between closest ranks of sorted values.
func percentile(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
