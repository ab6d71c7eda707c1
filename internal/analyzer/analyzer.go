// Package analyzer runs the full indicator, strategy and risk pipeline for
// one instrument or a batch of instruments.
package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"TradeScout/internal/indicator"
	"TradeScout/internal/metrics"
	"TradeScout/internal/model"
	"TradeScout/internal/risk"
	"TradeScout/internal/strategy"
)

// MinBars is the shortest series Analyze accepts before handing it to the
// indicator pipeline, which in turn requires indicator.MinBars.
const MinBars = risk.MinBars

const defaultWorkers = 5

// Analyzer is safe for concurrent use; the strategy book is never mutated.
type Analyzer struct {
	Book    *model.StrategyBook
	Log     zerolog.Logger
	Metrics *metrics.Recorder
	Workers int
	Now     func() time.Time
}

// New creates an Analyzer. A nil book means the built-in default book.
func New(book *model.StrategyBook, log zerolog.Logger, m *metrics.Recorder) *Analyzer {
	if book == nil {
		book = strategy.DefaultBook()
	}
	return &Analyzer{
		Book:    book,
		Log:     log,
		Metrics: m,
		Workers: defaultWorkers,
		Now:     time.Now,
	}
}

// Analyze produces a recommendation for one series. It returns
// model.ErrInsufficientData when the series is too short; callers should
// skip the instrument.
func (a *Analyzer) Analyze(symbol string, series *model.PriceSeries) (*model.AnalysisResult, error) {
	if series == nil || series.Len() < MinBars {
		a.skip(symbol, "insufficient_data")
		return nil, model.ErrInsufficientData
	}

	ind, err := indicator.Compute(series.Bars)
	if err != nil {
		a.skip(symbol, "insufficient_data")
		return nil, err
	}

	latest, previous := ind.Latest(), ind.Previous()
	votes := strategy.Evaluate(a.Book, latest, previous)
	final := strategy.Aggregate(votes)
	levels := risk.Levels(latest, final)
	price, _ := latest.Value(model.ColClose)

	strategies := make(map[string]model.Signal, len(votes))
	for _, v := range votes {
		strategies[v.Strategy] = v.Signal
	}

	res := &model.AnalysisResult{
		Symbol:       symbol,
		Signal:       final,
		Confidence:   strategy.MeanConfidence(votes),
		RiskScore:    risk.Score(ind),
		CurrentPrice: price,
		Entry:        levels.Entry,
		StopLoss:     levels.StopLoss,
		Target:       levels.Target,
		Timestamp:    a.Now(),
		Strategies:   strategies,
		Votes:        votes,
		Details:      snapshot(latest),
	}
	a.Metrics.Analysis(string(final))
	return res, nil
}

// AnalyzeBatch analyzes every series in parallel with at most Workers
// goroutines. Instruments that fail are absent from the result.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, batch map[string]*model.PriceSeries) map[string]*model.AnalysisResult {
	workers := a.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	jobs := make(chan string)
	results := make(map[string]*model.AnalysisResult, len(batch))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				res, err := a.Analyze(symbol, batch[symbol])
				if err != nil {
					continue
				}
				mu.Lock()
				results[symbol] = res
				mu.Unlock()
			}
		}()
	}

feed:
	for symbol := range batch {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	a.Log.Info().
		Int("instruments", len(batch)).
		Int("analyzed", len(results)).
		Msg("batch analysis complete")
	return results
}

func (a *Analyzer) skip(symbol, reason string) {
	a.Metrics.Skipped(reason)
	a.Log.Debug().Str("symbol", symbol).Str("reason", reason).Msg("skipping instrument")
}

// IsSkip reports whether err only means the instrument should be skipped.
func IsSkip(err error) bool {
	return errors.Is(err, model.ErrInsufficientData)
}

func snapshot(r model.Row) model.Snapshot {
	return model.Snapshot{
		RSI:                 value(r, model.ColRSI),
		MACD:                value(r, model.ColMACD),
		MACDSignal:          value(r, model.ColMACDSignal),
		EMA20:               value(r, model.ColEMA20),
		EMA50:               value(r, model.ColEMA50),
		ADX:                 value(r, model.ColADX),
		ATR:                 value(r, model.ColATR),
		BBWidth:             value(r, model.ColBBWidth),
		SuperTrend:          value(r, model.ColSuperTrend),
		SuperTrendDirection: value(r, model.ColSTDir),
		VWAP:                value(r, model.ColVWAP),
		Support:             value(r, model.ColSupport),
		Resistance:          value(r, model.ColResistance),
		Volume:              value(r, model.ColVolume),
	}
}

func value(r model.Row, name string) *float64 {
	v, ok := r.Value(name)
	if !ok {
		return nil
	}
	return &v
}
