package indicator

import (
	"math"

	"TradeScout/internal/model"
)

// SMA returns the rolling simple moving average. The first period-1 positions are undefined.
func SMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RollingMin returns the minimum over the trailing window.
func RollingMin(values []float64, window int) []float64 {
	return rollingExtreme(values, window, math.Min, math.Inf(1))
}

// RollingMax returns the maximum over the trailing window.
func RollingMax(values []float64, window int) []float64 {
	return rollingExtreme(values, window, math.Max, math.Inf(-1))
}

func rollingExtreme(values []float64, window int, pick func(a, b float64) float64, seed float64) []float64 {
	out := undefinedSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		ext := seed
		for j := i - window + 1; j <= i; j++ {
			ext = pick(ext, values[j])
		}
		out[i] = ext
	}
	return out
}

// Returns computes simple and log returns between consecutive closes.
func Returns(closes []float64) (simple, logReturns []float64) {
	simple = undefinedSeries(len(closes))
	logReturns = undefinedSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		simple[i] = closes[i]/closes[i-1] - 1
		logReturns[i] = math.Log(closes[i] / closes[i-1])
	}
	return simple, logReturns
}

// VWAP is the cumulative volume-weighted typical price from the first bar.
// Positions where no volume has traded yet are undefined.
func VWAP(bars []model.Bar) []float64 {
	out := undefinedSeries(len(bars))
	var pv, vol float64
	for i, b := range bars {
		pv += b.Volume * b.TypicalPrice()
		vol += b.Volume
		if vol > 0 {
			out[i] = pv / vol
		}
	}
	return out
}

// Gaps flags opens more than pct above or below the previous close (1 or 0).
func Gaps(bars []model.Bar, pct float64) (up, down []float64) {
	up = undefinedSeries(len(bars))
	down = undefinedSeries(len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		up[i] = boolValue(bars[i].Open > prev*(1+pct))
		down[i] = boolValue(bars[i].Open < prev*(1-pct))
	}
	return up, down
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
