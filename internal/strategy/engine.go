package strategy

import (
	"math"

	"TradeScout/internal/condition"
	"TradeScout/internal/model"
)

// Decision thresholds.
const (
	actionRatio    = 0.6
	noOpinion      = 0.5
	ballotsPerUnit = 10
)

// Score evaluates one strategy's buy and sell conditions against the latest
// two rows and returns its vote.
func Score(cfg model.StrategyConfig, latest, previous model.Row) model.StrategySignal {
	sig := model.StrategySignal{Strategy: cfg.Name}

	if len(cfg.BuyConditions) == 0 && len(cfg.SellConditions) == 0 {
		sig.Signal = model.SignalHold
		sig.Confidence = noOpinion
		return sig
	}

	buyRatio := satisfiedRatio(cfg.BuyConditions, latest, previous)
	sellRatio := satisfiedRatio(cfg.SellConditions, latest, previous)

	switch {
	case buyRatio > actionRatio && buyRatio > sellRatio:
		sig.Signal, sig.Confidence = model.SignalBuy, buyRatio
	case sellRatio > actionRatio && sellRatio > buyRatio:
		sig.Signal, sig.Confidence = model.SignalSell, sellRatio
	default:
		sig.Signal, sig.Confidence = model.SignalHold, math.Max(buyRatio, sellRatio)
	}
	return sig
}

func satisfiedRatio(conds []string, latest, previous model.Row) float64 {
	met := 0
	for _, c := range conds {
		if condition.Evaluate(c, latest, previous) {
			met++
		}
	}
	return float64(met) / float64(max(1, len(conds)))
}

// Aggregate combines strategy votes by confidence-weighted plurality.
//
// Each vote contributes round(confidence*10) ballots. The signal with the most
// ballots wins; ties go to the signal seen first. The configured strategy
// weight is not consulted. No ballots at all yields HOLD.
func Aggregate(votes []model.StrategySignal) model.Signal {
	counts := make(map[model.Signal]int, 3)
	var order []model.Signal
	for _, v := range votes {
		n := int(math.Round(v.Confidence * ballotsPerUnit))
		if n <= 0 {
			continue
		}
		if _, seen := counts[v.Signal]; !seen {
			order = append(order, v.Signal)
		}
		counts[v.Signal] += n
	}

	best, bestCount := model.SignalHold, 0
	for _, s := range order {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}

// MeanConfidence averages the confidence of all votes, 0 when there are none.
func MeanConfidence(votes []model.StrategySignal) float64 {
	if len(votes) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range votes {
		sum += v.Confidence
	}
	return sum / float64(len(votes))
}

// Evaluate scores every strategy in the book, in book order.
func Evaluate(book *model.StrategyBook, latest, previous model.Row) []model.StrategySignal {
	votes := make([]model.StrategySignal, 0, book.Len())
	for _, cfg := range book.Strategies() {
		votes = append(votes, Score(cfg, latest, previous))
	}
	return votes
}
