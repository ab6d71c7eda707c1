package risk

import (
	"math"

	"TradeScout/internal/model"
)

const (
	entrySlippage = 0.002
	stopATRMult   = 1.5
	targetATRMult = 3.0
)

// Levels derives entry, stop-loss and target prices from the latest row.
// HOLD, or an undefined ATR, pins all three to the close.
func Levels(latest model.Row, signal model.Signal) model.Levels {
	price, _ := latest.Value(model.ColClose)
	atr, okATR := latest.Value(model.ColATR)

	flat := model.Levels{Entry: round2(price), StopLoss: round2(price), Target: round2(price)}
	if !okATR {
		return flat
	}

	switch signal {
	case model.SignalBuy:
		return model.Levels{
			Entry:    round2(price * (1 + entrySlippage)),
			StopLoss: round2(price - stopATRMult*atr),
			Target:   round2(price + targetATRMult*atr),
		}
	case model.SignalSell:
		return model.Levels{
			Entry:    round2(price * (1 - entrySlippage)),
			StopLoss: round2(price + stopATRMult*atr),
			Target:   round2(price - targetATRMult*atr),
		}
	default:
		return flat
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
