package collector

import (
	"context"
	"errors"

	"TradeScout/internal/model"
)

// ErrNoData is returned when a source has no bars for the request.
var ErrNoData = errors.New("no data returned")

// Fetcher retrieves OHLCV bars for one instrument.
// period is a lookback such as "5d" or "3mo"; interval a bar size such as "15m" or "1d".
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, period, interval string) ([]model.Bar, error)
	Name() string
}
