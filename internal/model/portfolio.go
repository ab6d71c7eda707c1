package model

import "time"

// Position is an open holding tracked by the portfolio manager.
type Position struct {
	Symbol   string    `json:"symbol"`
	Side     Signal    `json:"side"`
	Quantity int64     `json:"quantity"`
	Entry    float64   `json:"entry"`
	StopLoss float64   `json:"stop_loss"`
	Target   float64   `json:"target"`
	OpenedAt time.Time `json:"opened_at"`
}

// PortfolioState is the persisted set of open positions.
type PortfolioState struct {
	Value     float64    `json:"value"`
	Positions []Position `json:"positions"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MarketSentiment is a coarse market-wide reading.
type MarketSentiment struct {
	IndexChangePct float64   `json:"index_change_pct"`
	VIX            float64   `json:"vix"`
	AdvanceDecline float64   `json:"advance_decline"`
	Timestamp      time.Time `json:"timestamp"`
}
