package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"TradeScout/internal/indicator"
	"TradeScout/internal/metrics"
	"TradeScout/internal/model"
	"TradeScout/internal/strategy"
)

var fixedNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func seriesFromCloses(symbol string, closes []float64, spread float64) *model.PriceSeries {
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
			Volume: 50000,
		}
	}
	return &model.PriceSeries{Symbol: symbol, Period: "3mo", Interval: "1d", Bars: bars}
}

// risingCloses climbs 0.1 per bar with a single 1.0 breakout at bar 40.
func risingCloses() []float64 {
	closes := make([]float64, 60)
	c := 100.0
	for i := range closes {
		if i == 40 {
			c += 1.0
		} else if i > 0 {
			c += 0.1
		}
		closes[i] = c
	}
	return closes
}

func flatCloses() []float64 {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	return closes
}

func trendBook() *model.StrategyBook {
	mr, _ := strategy.DefaultBook().Get("mean_reversion")
	return model.NewStrategyBook(
		model.StrategyConfig{
			Name:           "momentum",
			BuyConditions:  []string{"RSI > 50"},
			SellConditions: []string{"RSI < 30"},
			Weight:         0.3,
		},
		model.StrategyConfig{
			Name:           "trend_following",
			BuyConditions:  []string{"EMA_9 > EMA_20", "EMA_20 > EMA_50"},
			SellConditions: []string{"EMA_20 < EMA_50"},
			Weight:         0.4,
		},
		mr,
	)
}

func newTestAnalyzer(book *model.StrategyBook) *Analyzer {
	a := New(book, zerolog.Nop(), metrics.New())
	a.Now = func() time.Time { return fixedNow }
	return a
}

func TestAnalyze_RisingSeriesIsBuy(t *testing.T) {
	series := seriesFromCloses("UPTREND", risingCloses(), 0.02)

	ind, err := indicator.Compute(series.Bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	latest := ind.Latest()
	rsi, _ := latest.Value(model.ColRSI)
	e9, _ := latest.Value(model.ColEMA9)
	e20, _ := latest.Value(model.ColEMA20)
	e50, _ := latest.Value(model.ColEMA50)
	dir, _ := latest.Value(model.ColSTDir)
	if rsi <= 50 {
		t.Errorf("RSI = %f, want > 50", rsi)
	}
	if !(e9 > e20 && e20 > e50) {
		t.Errorf("EMA order broken: 9=%f 20=%f 50=%f", e9, e20, e50)
	}
	if dir != 1 {
		t.Errorf("SuperTrend direction = %f, want +1", dir)
	}

	res, err := newTestAnalyzer(trendBook()).Analyze("UPTREND", series)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Strategies["momentum"] != model.SignalBuy || res.Strategies["trend_following"] != model.SignalBuy {
		t.Errorf("expected momentum and trend BUY, got %v", res.Strategies)
	}
	if res.Signal != model.SignalBuy {
		t.Errorf("expected final BUY, got %s", res.Signal)
	}
	if !(res.StopLoss < res.CurrentPrice && res.CurrentPrice < res.Target) {
		t.Errorf("BUY levels out of order: stop=%f price=%f target=%f", res.StopLoss, res.CurrentPrice, res.Target)
	}
	if res.RiskScore < 0 || res.RiskScore > 10 {
		t.Errorf("risk %f outside [0,10]", res.RiskScore)
	}
	if !res.Timestamp.Equal(fixedNow) || res.Symbol != "UPTREND" {
		t.Errorf("unexpected header %s %s", res.Symbol, res.Timestamp)
	}
	if len(res.Votes) != 3 || res.Votes[0].Strategy != "momentum" {
		t.Errorf("votes should follow book order, got %+v", res.Votes)
	}
}

func TestAnalyze_FlatSeriesIsHold(t *testing.T) {
	series := seriesFromCloses("FLAT", flatCloses(), 0)
	res, err := newTestAnalyzer(nil).Analyze("FLAT", series)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for name, sig := range res.Strategies {
		if sig != model.SignalHold {
			t.Errorf("%s: expected HOLD, got %s", name, sig)
		}
	}
	if res.Signal != model.SignalHold {
		t.Errorf("expected final HOLD, got %s", res.Signal)
	}
	if res.Entry != 100 || res.StopLoss != 100 || res.Target != 100 {
		t.Errorf("HOLD levels should equal close: %+v", res)
	}
	if res.Details.RSI == nil || *res.Details.RSI != 50 {
		t.Errorf("flat RSI should be 50, got %v", res.Details.RSI)
	}
	if res.Details.MACD == nil || math.Abs(*res.Details.MACD) > 1e-9 {
		t.Errorf("flat MACD should be 0, got %v", res.Details.MACD)
	}
	if res.Details.BBWidth == nil || math.Abs(*res.Details.BBWidth) > 1e-9 {
		t.Errorf("flat BB width should be 0, got %v", res.Details.BBWidth)
	}
	if res.RiskScore != 0 {
		t.Errorf("flat risk = %f, want 0", res.RiskScore)
	}
}

func TestAnalyze_DefaultBookOnRisingSeriesHolds(t *testing.T) {
	// The stock rules pair each trend condition with an inert one, so no
	// strategy clears the 0.6 ratio on a clean uptrend.
	res, err := newTestAnalyzer(nil).Analyze("UP", seriesFromCloses("UP", risingCloses(), 0.02))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Signal != model.SignalHold {
		t.Errorf("expected HOLD from default book, got %s", res.Signal)
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	a := newTestAnalyzer(nil)
	for _, n := range []int{0, 10, 30, 49} {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		res, err := a.Analyze("SHORT", seriesFromCloses("SHORT", closes, 0.5))
		if res != nil || !errors.Is(err, model.ErrInsufficientData) {
			t.Errorf("%d bars: expected ErrInsufficientData, got %v %v", n, res, err)
		}
		if !IsSkip(err) {
			t.Errorf("%d bars: IsSkip should be true", n)
		}
	}
	if _, err := a.Analyze("NIL", nil); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("nil series: got %v", err)
	}
}

func TestAnalyze_ResultMarshalsWithoutNaN(t *testing.T) {
	res, err := newTestAnalyzer(nil).Analyze("FLAT", seriesFromCloses("FLAT", flatCloses(), 0))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := json.Marshal(res); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestAnalyzeBatch_SkipsFailures(t *testing.T) {
	batch := map[string]*model.PriceSeries{
		"UP":    seriesFromCloses("UP", risingCloses(), 0.02),
		"FLAT":  seriesFromCloses("FLAT", flatCloses(), 0),
		"SHORT": seriesFromCloses("SHORT", []float64{1, 2, 3}, 0.1),
		"NIL":   nil,
	}
	a := newTestAnalyzer(trendBook())
	a.Workers = 2
	got := a.AnalyzeBatch(context.Background(), batch)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got["UP"] == nil || got["UP"].Signal != model.SignalBuy {
		t.Errorf("UP result %+v", got["UP"])
	}
	if got["FLAT"] == nil || got["FLAT"].Signal != model.SignalHold {
		t.Errorf("FLAT result %+v", got["FLAT"])
	}
	if _, ok := got["SHORT"]; ok {
		t.Error("SHORT should be absent")
	}
}

func TestAnalyzeBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	batch := map[string]*model.PriceSeries{"UP": seriesFromCloses("UP", risingCloses(), 0.02)}
	got := newTestAnalyzer(nil).AnalyzeBatch(ctx, batch)
	if len(got) > 1 {
		t.Errorf("unexpected results %v", got)
	}
}
