// Package collector fetches price series from market data sources, caches
// them and fans requests out over a bounded worker pool.
package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"TradeScout/internal/metrics"
	"TradeScout/internal/model"
)

const (
	DefaultWorkers = 5
	DefaultTimeout = 10 * time.Second

	indexSymbol = "^NSEI"
	vixSymbol   = "^INDIAVIX"

	// advanceDeclineRatio stands in until a breadth source is wired.
	advanceDeclineRatio = 1.2
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.Bar // per-symbol override
	Err   error
	Delay time.Duration

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchBars ran.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.Bar, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		if len(bars) == 0 {
			return nil, ErrNoData
		}
		return bars, nil
	}
	step, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}
	return generateMockBars(m.Price, 120, step), nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	end := time.Now().Truncate(step)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/8) + float64(i-count/2)*0.0005)
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector wraps a Fetcher with caching and bounded parallelism.
type Collector struct {
	Fetcher Fetcher
	Cache   Cache
	Workers int
	Timeout time.Duration
	Log     zerolog.Logger
	Metrics *metrics.Recorder
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, cache Cache, log zerolog.Logger, m *metrics.Recorder) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Cache:   cache,
		Workers: DefaultWorkers,
		Timeout: DefaultTimeout,
		Log:     log,
		Metrics: m,
	}
}

// Series returns validated bars for one instrument, from cache when fresh.
func (c *Collector) Series(ctx context.Context, symbol, period, interval string) (*model.PriceSeries, error) {
	key := CacheKey{Symbol: symbol, Period: period, Interval: interval}
	if c.Cache != nil {
		if s, ok := c.Cache.Get(ctx, key); ok {
			c.Metrics.CacheHit()
			return s, nil
		}
		c.Metrics.CacheMiss()
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	bars, err := c.Fetcher.FetchBars(ctx, symbol, period, interval)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validate %s: %w", symbol, err)
	}

	s := &model.PriceSeries{
		Symbol:    symbol,
		Period:    period,
		Interval:  interval,
		Bars:      bars,
		FetchedAt: time.Now(),
	}
	if c.Cache != nil {
		c.Cache.Set(ctx, key, s)
	}
	return s, nil
}

// SeriesMany fetches every symbol with at most Workers requests in flight.
// Failed symbols are logged and left out of the result.
func (c *Collector) SeriesMany(ctx context.Context, symbols []string, period, interval string) map[string]*model.PriceSeries {
	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	out := make(map[string]*model.PriceSeries, len(symbols))
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)

	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			wg.Wait()
			return out
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			s, err := c.Series(ctx, symbol, period, interval)
			if err != nil {
				c.Log.Warn().Err(err).Str("symbol", symbol).Msg("fetch failed")
				return
			}
			mu.Lock()
			out[symbol] = s
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	return out
}

// Sentiment summarises the broad market. Missing inputs read as zero.
func (c *Collector) Sentiment(ctx context.Context) *model.MarketSentiment {
	sent := &model.MarketSentiment{
		AdvanceDecline: advanceDeclineRatio,
		Timestamp:      time.Now(),
	}

	if idx, err := c.Series(ctx, indexSymbol, "5d", "1d"); err != nil {
		c.Log.Warn().Err(err).Msg("index data unavailable")
	} else if n := idx.Len(); n >= 2 {
		prev, last := idx.Bars[n-2].Close, idx.Bars[n-1].Close
		sent.IndexChangePct = (last/prev - 1) * 100
	}

	if vix, err := c.Series(ctx, vixSymbol, "5d", "1d"); err != nil {
		c.Log.Warn().Err(err).Msg("VIX data unavailable")
	} else if last, ok := vix.Latest(); ok {
		sent.VIX = last.Close
	}
	return sent
}
