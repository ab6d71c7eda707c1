// Package indicator derives the technical indicator columns used by the
// strategy conditions from a raw OHLCV series.
package indicator

import (
	"github.com/markcheno/go-talib"

	"TradeScout/internal/model"
)

// MinBars is the shortest series Compute accepts.
const MinBars = 50

const (
	rsiPeriod       = 14
	stochFastK      = 14
	stochSlowK      = 3
	stochSlowD      = 3
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	adxPeriod       = 14
	atrPeriod       = 14
	bbPeriod        = 20
	bbDeviations    = 2.0
	mfiPeriod       = 14
	stPeriod        = 10
	stMultiplier    = 3.0
	levelWindow     = 20
	volumeSMAPeriod = 20
	gapPct          = 0.02
)

// Warmup maps each derived column to the number of leading positions that
// hold undefined values.
var Warmup = map[string]int{
	model.ColReturns:    1,
	model.ColLogReturns: 1,
	model.ColRSI:        rsiPeriod,
	model.ColStochK:     (stochFastK - 1) + (stochSlowK - 1) + (stochSlowD - 1),
	model.ColStochD:     (stochFastK - 1) + (stochSlowK - 1) + (stochSlowD - 1),
	model.ColMACD:       (macdSlow - 1) + (macdSignal - 1),
	model.ColMACDSignal: (macdSlow - 1) + (macdSignal - 1),
	model.ColMACDHist:   (macdSlow - 1) + (macdSignal - 1),
	model.ColEMA9:       9 - 1,
	model.ColEMA20:      20 - 1,
	model.ColEMA50:      50 - 1,
	model.ColADX:        2*adxPeriod - 1,
	model.ColATR:        atrPeriod,
	model.ColBBUpper:    bbPeriod - 1,
	model.ColBBMiddle:   bbPeriod - 1,
	model.ColBBLower:    bbPeriod - 1,
	model.ColBBWidth:    bbPeriod - 1,
	model.ColOBV:        0,
	model.ColMFI:        mfiPeriod,
	model.ColVWAP:       0,
	model.ColSupport:    levelWindow - 1,
	model.ColResistance: levelWindow - 1,
	model.ColVolumeSMA:  volumeSMAPeriod - 1,
	model.ColGapUp:      1,
	model.ColGapDown:    1,
}

// Compute returns bars extended with every indicator column.
// Positions inside an indicator's warm-up window are undefined.
func Compute(bars []model.Bar) (*model.IndicatorSeries, error) {
	if len(bars) < MinBars {
		return nil, model.ErrInsufficientData
	}

	s := model.NewIndicatorSeries(bars)
	_, high, low, closes, volume := model.Columns(bars)

	ret, logRet := Returns(closes)
	s.Set(model.ColReturns, ret)
	s.Set(model.ColLogReturns, logRet)

	s.Set(model.ColRSI, RSI(closes, rsiPeriod))

	k, d := talib.Stoch(high, low, closes, stochFastK, stochSlowK, talib.SMA, stochSlowD, talib.SMA)
	s.Set(model.ColStochK, masked(k, model.ColStochK))
	s.Set(model.ColStochD, masked(d, model.ColStochD))

	macd, signal, hist := MACD(closes, macdFast, macdSlow, macdSignal)
	s.Set(model.ColMACD, masked(macd, model.ColMACD))
	s.Set(model.ColMACDSignal, masked(signal, model.ColMACDSignal))
	s.Set(model.ColMACDHist, masked(hist, model.ColMACDHist))

	s.Set(model.ColEMA9, masked(talib.Ema(closes, 9), model.ColEMA9))
	s.Set(model.ColEMA20, masked(talib.Ema(closes, 20), model.ColEMA20))
	s.Set(model.ColEMA50, masked(talib.Ema(closes, 50), model.ColEMA50))

	s.Set(model.ColADX, masked(talib.Adx(high, low, closes, adxPeriod), model.ColADX))
	s.Set(model.ColATR, masked(talib.Atr(high, low, closes, atrPeriod), model.ColATR))

	upper, middle, lower := talib.BBands(closes, bbPeriod, bbDeviations, bbDeviations, talib.SMA)
	upper = masked(upper, model.ColBBUpper)
	middle = masked(middle, model.ColBBMiddle)
	lower = masked(lower, model.ColBBLower)
	s.Set(model.ColBBUpper, upper)
	s.Set(model.ColBBMiddle, middle)
	s.Set(model.ColBBLower, lower)
	s.Set(model.ColBBWidth, bandWidth(upper, middle, lower))

	s.Set(model.ColOBV, talib.Obv(closes, volume))
	s.Set(model.ColMFI, masked(talib.Mfi(high, low, closes, volume, mfiPeriod), model.ColMFI))

	stATR := maskFirst(talib.Atr(high, low, closes, stPeriod), stPeriod)
	line, dir := SuperTrend(high, low, closes, stATR, stMultiplier)
	s.Set(model.ColSuperTrend, line)
	s.Set(model.ColSTDir, dir)

	s.Set(model.ColVWAP, VWAP(bars))
	s.Set(model.ColSupport, RollingMin(low, levelWindow))
	s.Set(model.ColResistance, RollingMax(high, levelWindow))
	s.Set(model.ColVolumeSMA, SMA(volume, volumeSMAPeriod))

	up, down := Gaps(bars, gapPct)
	s.Set(model.ColGapUp, up)
	s.Set(model.ColGapDown, down)

	return s, nil
}

// MACD returns the fast-minus-slow EMA line, its signal EMA and the
// histogram. The signal is seeded with the simple average of the first
// signal-period MACD values, so it starts at index slow+signal-2.
// talib.Macd seeds it from a zero-filled prefix instead.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(closes)
	line, sig, hist = undefinedSeries(n), undefinedSeries(n), undefinedSeries(n)
	if n < slow {
		return line, sig, hist
	}
	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)
	for i := slow - 1; i < n; i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	if n-(slow-1) < signal {
		return line, sig, hist
	}
	sigEMA := talib.Ema(line[slow-1:], signal)
	for j := signal - 1; j < len(sigEMA); j++ {
		i := slow - 1 + j
		sig[i] = sigEMA[j]
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// masked replaces the zero-filled warm-up prefix of a go-talib output.
func masked(values []float64, column string) []float64 {
	return maskFirst(values, Warmup[column])
}

func maskFirst(values []float64, n int) []float64 {
	for i := 0; i < n && i < len(values); i++ {
		values[i] = model.Undefined
	}
	return values
}

func bandWidth(upper, middle, lower []float64) []float64 {
	out := undefinedSeries(len(middle))
	for i := range middle {
		if middle[i] != 0 {
			out[i] = (upper[i] - lower[i]) / middle[i]
		}
	}
	return out
}
