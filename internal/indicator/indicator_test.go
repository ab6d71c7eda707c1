package indicator

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"TradeScout/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func barsFromCloses(closes []float64, spread float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c) + spread,
			Low:    math.Min(open, c) - spread,
			Close:  c,
			Volume: 1000 + float64(i%7)*100,
		}
	}
	return bars
}

func waveCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 5*math.Sin(float64(i)/5) + float64(i)*0.1
	}
	return out
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(barsFromCloses(waveCloses(MinBars-1), 1))
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompute_WarmupWindows(t *testing.T) {
	series, err := Compute(barsFromCloses(waveCloses(80), 1))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for name, warm := range Warmup {
		col, ok := series.Column(name)
		if !ok {
			t.Errorf("column %s missing", name)
			continue
		}
		if len(col) != series.Len() {
			t.Errorf("column %s: length %d, want %d", name, len(col), series.Len())
		}
		for i, v := range col {
			if i < warm && !model.IsUndefined(v) {
				t.Errorf("%s[%d] = %f inside warm-up of %d", name, i, v, warm)
			}
			if i >= warm && model.IsUndefined(v) {
				t.Errorf("%s[%d] undefined after warm-up of %d", name, i, warm)
			}
		}
	}
}

func TestCompute_SuperTrendColumns(t *testing.T) {
	series, err := Compute(barsFromCloses(waveCloses(80), 1))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	dir, _ := series.Column(model.ColSTDir)
	if !model.IsUndefined(dir[0]) {
		t.Errorf("direction[0] should be undefined, got %f", dir[0])
	}
	for i, d := range dir {
		if model.IsUndefined(d) {
			continue
		}
		if d != 1 && d != -1 {
			t.Errorf("direction[%d] = %f, want +1 or -1", i, d)
		}
	}
}

func TestCompute_FlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	series, err := Compute(barsFromCloses(closes, 0))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	latest := series.Latest()
	if rsi, ok := latest.Value(model.ColRSI); !ok || rsi != 50 {
		t.Errorf("flat RSI = %v (defined=%v), want 50", rsi, ok)
	}
	if atr, ok := latest.Value(model.ColATR); !ok || atr != 0 {
		t.Errorf("flat ATR = %v, want 0", atr)
	}
	if ema20, _ := latest.Value(model.ColEMA20); math.Abs(ema20-100) > 1e-9 {
		t.Errorf("flat EMA_20 = %f, want 100", ema20)
	}
	if ema50, _ := latest.Value(model.ColEMA50); math.Abs(ema50-100) > 1e-9 {
		t.Errorf("flat EMA_50 = %f, want 100", ema50)
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	out := RSI(rising, 14)
	for i := 0; i < 14; i++ {
		if !model.IsUndefined(out[i]) {
			t.Errorf("RSI[%d] should be undefined", i)
		}
	}
	for i := 14; i < len(out); i++ {
		assertClose(t, "rising RSI", out[i], 100, 1e-9)
	}

	// Alternating equal moves settle at 50.
	alt := make([]float64, 40)
	for i := range alt {
		alt[i] = 100 + float64(i%2)
	}
	out = RSI(alt, 14)
	assertClose(t, "alternating RSI", out[14], 50, 1e-9)
}

func TestSuperTrend_CarriesForward(t *testing.T) {
	closes := []float64{10, 10.5, 12, 11.5, 9, 9.2}
	atr := []float64{1, 1, 1, 1, 1, 1}
	line, dir := SuperTrend(closes, closes, closes, atr, 1)

	wantDir := []float64{math.NaN(), math.NaN(), 1, 1, -1, -1}
	wantLine := []float64{math.NaN(), 11.5, 11, 10.5, 10, 10.2}
	for i := range closes {
		if math.IsNaN(wantDir[i]) != math.IsNaN(dir[i]) || (!math.IsNaN(dir[i]) && dir[i] != wantDir[i]) {
			t.Errorf("dir[%d] = %f, want %f", i, dir[i], wantDir[i])
		}
		if math.IsNaN(wantLine[i]) {
			if !math.IsNaN(line[i]) {
				t.Errorf("line[%d] = %f, want undefined", i, line[i])
			}
			continue
		}
		assertClose(t, "supertrend line", line[i], wantLine[i], 1e-9)
	}
}

func TestSuperTrend_UndefinedBandsKeepState(t *testing.T) {
	closes := []float64{10, 20, 5, 30}
	atr := []float64{math.NaN(), math.NaN(), math.NaN(), 1}
	_, dir := SuperTrend(closes, closes, closes, atr, 1)
	for i := 0; i < 4; i++ {
		if !math.IsNaN(dir[i]) {
			t.Errorf("dir[%d] = %f, want undefined while previous bands are undefined", i, dir[i])
		}
	}
}

func TestVWAP(t *testing.T) {
	bars := []model.Bar{
		{High: 11, Low: 9, Close: 10, Volume: 100},
		{High: 13, Low: 11, Close: 12, Volume: 300},
		{High: 20, Low: 20, Close: 20, Volume: 0},
	}
	out := VWAP(bars)
	assertClose(t, "vwap[0]", out[0], 10, 1e-9)
	assertClose(t, "vwap[1]", out[1], (10*100+12*300)/400.0, 1e-9)
	assertClose(t, "vwap[2]", out[2], out[1], 1e-9)

	none := VWAP([]model.Bar{{High: 1, Low: 1, Close: 1}})
	if !math.IsNaN(none[0]) {
		t.Errorf("vwap without volume should be undefined, got %f", none[0])
	}
}

func TestRollingLevels(t *testing.T) {
	values := []float64{5, 3, 8, 1, 7}
	lo := RollingMin(values, 3)
	hi := RollingMax(values, 3)
	if !math.IsNaN(lo[1]) || !math.IsNaN(hi[1]) {
		t.Error("rolling window should be undefined before it fills")
	}
	wantLo := []float64{3, 1, 1}
	wantHi := []float64{8, 8, 8}
	for i := 2; i < 5; i++ {
		assertClose(t, "min", lo[i], wantLo[i-2], 0)
		assertClose(t, "max", hi[i], wantHi[i-2], 0)
	}
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{100, 102, 104, 103, 105}, 3)
	want := []float64{102, 103, 104}
	for i := 2; i < 5; i++ {
		assertClose(t, "SMA(3)", out[i], want[i-2], 1e-9)
	}
}

func TestReturnsAndGaps(t *testing.T) {
	simple, logRet := Returns([]float64{100, 110, 99})
	if !math.IsNaN(simple[0]) || !math.IsNaN(logRet[0]) {
		t.Error("first return should be undefined")
	}
	assertClose(t, "return[1]", simple[1], 0.1, 1e-12)
	assertClose(t, "log return[1]", logRet[1], math.Log(1.1), 1e-12)
	assertClose(t, "return[2]", simple[2], -0.1, 1e-12)

	bars := []model.Bar{
		{Open: 100, Close: 100},
		{Open: 103, Close: 103},
		{Open: 100, Close: 100},
		{Open: 101, Close: 101},
	}
	up, down := Gaps(bars, 0.02)
	if up[1] != 1 || down[1] != 0 {
		t.Errorf("bar 1: gap up=%f down=%f", up[1], down[1])
	}
	if up[2] != 0 || down[2] != 1 {
		t.Errorf("bar 2: gap up=%f down=%f", up[2], down[2])
	}
	if up[3] != 0 || down[3] != 0 {
		t.Errorf("bar 3: gap up=%f down=%f", up[3], down[3])
	}
}

// refEMA seeds with the simple average of values[start:start+n] and then
// applies k = 2/(n+1). Positions before the seed are undefined.
func refEMA(values []float64, start, n int) []float64 {
	out := undefinedSeries(len(values))
	if len(values) < start+n {
		return out
	}
	sum := 0.0
	for _, v := range values[start : start+n] {
		sum += v
	}
	seed := start + n - 1
	out[seed] = sum / float64(n)
	k := 2 / float64(n+1)
	for i := seed + 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

func TestCompute_EMASeededBySMA(t *testing.T) {
	closes := waveCloses(80)
	series, err := Compute(barsFromCloses(closes, 1))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, tc := range []struct {
		col string
		n   int
	}{{model.ColEMA9, 9}, {model.ColEMA20, 20}, {model.ColEMA50, 50}} {
		got, _ := series.Column(tc.col)
		want := refEMA(closes, 0, tc.n)
		for i := tc.n - 1; i < len(closes); i++ {
			assertClose(t, fmt.Sprintf("%s[%d]", tc.col, i), got[i], want[i], 1e-9)
		}
	}
}

func TestCompute_MACDSignalIsSeededEMA(t *testing.T) {
	closes := waveCloses(80)
	series, err := Compute(barsFromCloses(closes, 1))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	fast, slow := refEMA(closes, 0, 12), refEMA(closes, 0, 26)
	line := undefinedSeries(len(closes))
	for i := 25; i < len(closes); i++ {
		line[i] = fast[i] - slow[i]
	}
	signal := refEMA(line, 25, 9)

	gotLine, _ := series.Column(model.ColMACD)
	gotSignal, _ := series.Column(model.ColMACDSignal)
	gotHist, _ := series.Column(model.ColMACDHist)
	for i := 33; i < len(closes); i++ {
		assertClose(t, fmt.Sprintf("MACD[%d]", i), gotLine[i], line[i], 1e-9)
		assertClose(t, fmt.Sprintf("MACD_Signal[%d]", i), gotSignal[i], signal[i], 1e-9)
		assertClose(t, fmt.Sprintf("MACD_Hist[%d]", i), gotHist[i], line[i]-signal[i], 1e-9)
	}
	// first defined signal is the plain mean of MACD[25..33]
	sum := 0.0
	for i := 25; i <= 33; i++ {
		sum += line[i]
	}
	assertClose(t, "MACD_Signal seed", gotSignal[33], sum/9, 1e-9)
}

func TestMACD_ShortInput(t *testing.T) {
	line, sig, hist := MACD(waveCloses(30), 12, 26, 9)
	if model.IsUndefined(line[25]) {
		t.Error("MACD line should be defined from index 25")
	}
	for i := range sig {
		if !model.IsUndefined(sig[i]) || !model.IsUndefined(hist[i]) {
			t.Fatalf("signal/hist[%d] should be undefined with 30 closes", i)
		}
	}
}

func TestCompute_ATRIsWilderSmoothed(t *testing.T) {
	closes := waveCloses(80)
	bars := barsFromCloses(closes, 1)
	series, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		tr[i] = math.Max(bars[i].High-bars[i].Low, math.Max(math.Abs(bars[i].High-prev), math.Abs(bars[i].Low-prev)))
	}
	want := 0.0
	for i := 1; i <= 14; i++ {
		want += tr[i]
	}
	want /= 14

	got, _ := series.Column(model.ColATR)
	assertClose(t, "ATR[14]", got[14], want, 1e-9)
	for i := 15; i < len(bars); i++ {
		want = (want*13 + tr[i]) / 14
		assertClose(t, fmt.Sprintf("ATR[%d]", i), got[i], want, 1e-9)
	}
}

func TestCompute_StochasticSmoothing(t *testing.T) {
	closes := waveCloses(80)
	bars := barsFromCloses(closes, 1)
	series, err := Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	rawK := undefinedSeries(len(bars))
	for i := 13; i < len(bars); i++ {
		hi, lo := bars[i].High, bars[i].Low
		for j := i - 13; j <= i; j++ {
			hi = math.Max(hi, bars[j].High)
			lo = math.Min(lo, bars[j].Low)
		}
		rawK[i] = (bars[i].Close - lo) / (hi - lo) * 100
	}

	k, _ := series.Column(model.ColStochK)
	d, _ := series.Column(model.ColStochD)
	for i := 17; i < len(bars); i++ {
		wantK := (rawK[i-2] + rawK[i-1] + rawK[i]) / 3
		assertClose(t, fmt.Sprintf("Stoch_K[%d]", i), k[i], wantK, 1e-9)
		if i >= 19 {
			assertClose(t, fmt.Sprintf("Stoch_D[%d]", i), d[i], (k[i-2]+k[i-1]+k[i])/3, 1e-9)
		}
	}
}

func TestCompute_BollingerMiddleIsSMA(t *testing.T) {
	closes := waveCloses(80)
	series, err := Compute(barsFromCloses(closes, 1))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	mid, _ := series.Column(model.ColBBMiddle)
	want := SMA(closes, 20)
	for i := 19; i < len(closes); i++ {
		assertClose(t, fmt.Sprintf("BB_Middle[%d]", i), mid[i], want[i], 1e-9)
	}
}
