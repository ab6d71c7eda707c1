// Package recorder persists recommendations, position changes and
// operational log lines for later review.
package recorder

import (
	"context"
	"time"

	"TradeScout/internal/model"
)

// PositionEvent records a position being opened or closed.
type PositionEvent struct {
	Action   string // "OPEN" or "CLOSE"
	Position model.Position
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(ctx context.Context, runID string, res *model.AnalysisResult) error
	RecordPosition(ctx context.Context, evt *PositionEvent) error
	RecordLog(ctx context.Context, level, message string) error
	RecentSignals(ctx context.Context, limit int) ([]*model.AnalysisResult, error)
	SignalsSince(ctx context.Context, since time.Time) ([]*model.AnalysisResult, error)
	Close() error
}
