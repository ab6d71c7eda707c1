package model

import "time"

// Signal is a trading direction.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Actionable reports whether the signal asks for a trade.
func (s Signal) Actionable() bool { return s == SignalBuy || s == SignalSell }

// StrategySignal is one strategy's opinion on the latest bar.
type StrategySignal struct {
	Strategy   string  `json:"strategy"`
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// Levels are the actionable prices derived from the final signal.
type Levels struct {
	Entry    float64 `json:"entry"`
	StopLoss float64 `json:"stop_loss"`
	Target   float64 `json:"target"`
}

// Snapshot holds selected latest indicator values. Nil means undefined.
type Snapshot struct {
	RSI                 *float64 `json:"rsi"`
	MACD                *float64 `json:"macd"`
	MACDSignal          *float64 `json:"macd_signal"`
	EMA20               *float64 `json:"ema_20"`
	EMA50               *float64 `json:"ema_50"`
	ADX                 *float64 `json:"adx"`
	ATR                 *float64 `json:"atr"`
	BBWidth             *float64 `json:"bb_width"`
	SuperTrend          *float64 `json:"supertrend"`
	SuperTrendDirection *float64 `json:"supertrend_direction"`
	VWAP                *float64 `json:"vwap"`
	Support             *float64 `json:"support"`
	Resistance          *float64 `json:"resistance"`
	Volume              *float64 `json:"volume"`
}

// AnalysisResult is the complete recommendation for one instrument.
// It is built once by the analyzer and only read afterwards.
type AnalysisResult struct {
	Symbol       string            `json:"symbol"`
	Signal       Signal            `json:"signal"`
	Confidence   float64           `json:"confidence"`
	RiskScore    float64           `json:"risk_score"`
	CurrentPrice float64           `json:"current_price"`
	Entry        float64           `json:"entry"`
	StopLoss     float64           `json:"stop_loss"`
	Target       float64           `json:"target"`
	Timestamp    time.Time         `json:"timestamp"`
	Strategies   map[string]Signal `json:"strategies"`
	Votes        []StrategySignal  `json:"votes"`
	Details      Snapshot          `json:"details"`
}
