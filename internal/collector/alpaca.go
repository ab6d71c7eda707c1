package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"TradeScout/internal/model"
)

// barSource is the subset of the Alpaca market data client used here.
type barSource interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher implements Fetcher using Alpaca's market data API.
type AlpacaFetcher struct {
	Client barSource
	Now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
func NewAlpacaFetcher(apiKey, apiSecret string) *AlpacaFetcher {
	return &AlpacaFetcher{
		Client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		Now: time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchBars requests bars from period ago until now.
func (f *AlpacaFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.Bar, error) {
	tf, err := alpacaTimeFrame(interval)
	if err != nil {
		return nil, err
	}
	now := f.Now().UTC()
	start, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := f.Client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     start,
		End:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca fetch %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("alpaca %s: %w", symbol, ErrNoData)
	}

	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return bars, nil
}

func alpacaTimeFrame(interval string) (marketdata.TimeFrame, error) {
	n, unit, err := splitSpan(interval)
	if err != nil {
		return marketdata.TimeFrame{}, err
	}
	switch unit {
	case "m":
		return marketdata.NewTimeFrame(n, marketdata.Min), nil
	case "h":
		return marketdata.NewTimeFrame(n, marketdata.Hour), nil
	case "d":
		return marketdata.NewTimeFrame(n, marketdata.Day), nil
	case "wk":
		return marketdata.NewTimeFrame(n, marketdata.Week), nil
	case "mo":
		return marketdata.NewTimeFrame(n, marketdata.Month), nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", interval)
}
