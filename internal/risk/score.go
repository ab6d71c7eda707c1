// Package risk scores how risky an instrument currently looks and derives
// entry, stop-loss and target levels for a signal.
package risk

import (
	"math"

	"TradeScout/internal/model"
)

// MinBars is the shortest series Score evaluates; shorter ones get NeutralScore.
const MinBars = 20

// NeutralScore is returned when there is not enough history.
const NeutralScore = 5.0

const (
	maxScore        = 10.0
	volatilityCap   = 3.0
	atrCap          = 2.0
	extremeRSIScore = 2.0
	thinVolumeScore = 1.0
)

// Score returns a composite risk score in [0, 10]; lower is safer.
// Terms whose inputs are undefined contribute nothing.
func Score(s *model.IndicatorSeries) float64 {
	if s == nil || s.Len() < MinBars {
		return NeutralScore
	}
	closes := model.Closes(s.Bars)
	latest := s.Latest()

	score := 0.0

	// Volatility
	if sd := stdev(pctChange(closes)); !math.IsNaN(sd) {
		score += math.Min(sd*100/2, volatilityCap)
	}

	// RSI extremity
	if rsi, ok := latest.Value(model.ColRSI); ok && (rsi > 70 || rsi < 30) {
		score += extremeRSIScore
	}

	// Thin volume
	if vol, ok := latest.Value(model.ColVolume); ok {
		if mean := meanVolume(s.Bars); vol < 0.5*mean {
			score += thinVolumeScore
		}
	}

	// ATR relative to price
	atr, okATR := latest.Value(model.ColATR)
	price, okPrice := latest.Value(model.ColClose)
	if okATR && okPrice && price > 0 {
		score += math.Min(atr/price*100, atrCap)
	}

	return math.Max(0, math.Min(score, maxScore))
}

func pctChange(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// stdev is the sample standard deviation; NaN for fewer than two values.
func stdev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func meanVolume(bars []model.Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}
