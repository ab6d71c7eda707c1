package recorder

import (
	"context"
	"time"

	"TradeScout/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(context.Context, string, *model.AnalysisResult) error { return nil }
func (n *NoopRecorder) RecordPosition(context.Context, *PositionEvent) error             { return nil }
func (n *NoopRecorder) RecordLog(context.Context, string, string) error                  { return nil }
func (n *NoopRecorder) Close() error                                                      { return nil }

func (n *NoopRecorder) RecentSignals(context.Context, int) ([]*model.AnalysisResult, error) {
	return nil, nil
}

func (n *NoopRecorder) SignalsSince(context.Context, time.Time) ([]*model.AnalysisResult, error) {
	return nil, nil
}
