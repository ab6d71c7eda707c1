package indicator

import "TradeScout/internal/model"

type trend int8

const (
	trendUnknown trend = iota
	trendUp
	trendDown
)

func (t trend) value() float64 {
	switch t {
	case trendUp:
		return 1
	case trendDown:
		return -1
	default:
		return model.Undefined
	}
}

// SuperTrend evaluates the band-breakout trend left to right.
//
// The direction only changes when the close breaks the previous bar's band;
// otherwise it carries forward, starting from an unknown state. The line is
// the lower band in an up trend and the upper band otherwise.
func SuperTrend(high, low, close, atr []float64, multiplier float64) (line, direction []float64) {
	n := len(close)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		mid := (high[i] + low[i]) / 2
		upper[i] = mid + multiplier*atr[i]
		lower[i] = mid - multiplier*atr[i]
	}

	line = undefinedSeries(n)
	direction = undefinedSeries(n)
	state := trendUnknown
	for i := 1; i < n; i++ {
		// NaN bands compare false, so the state carries through warm-up.
		switch {
		case close[i] > upper[i-1]:
			state = trendUp
		case close[i] < lower[i-1]:
			state = trendDown
		}
		direction[i] = state.value()
		if state == trendUp {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}
	return line, direction
}
