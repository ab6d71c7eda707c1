package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"TradeScout/internal/model"
)

func signalIcon(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatAnalysis formats one recommendation. quantity is the suggested
// position size; zero omits the line.
func FormatAnalysis(r *model.AnalysisResult, quantity int64) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n",
		signalIcon(r.Signal), r.Signal, html.EscapeString(r.Symbol), r.Timestamp.Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Price: %.2f\n", r.CurrentPrice))
	b.WriteString(fmt.Sprintf("Confidence: %.0f%% | Risk: %.1f/10\n", r.Confidence*100, r.RiskScore))
	if r.Signal.Actionable() {
		b.WriteString(fmt.Sprintf("Entry: %.2f\nStop loss: %.2f\nTarget: %.2f\n", r.Entry, r.StopLoss, r.Target))
	}
	if quantity > 0 {
		b.WriteString(fmt.Sprintf("Position size: %d shares\n", quantity))
	}

	b.WriteString("\n📈 <b>Strategies:</b>\n")
	for _, v := range r.Votes {
		b.WriteString(fmt.Sprintf("  %s: %s (%.0f%%)\n", v.Strategy, v.Signal, v.Confidence*100))
	}

	d := r.Details
	b.WriteString("\n🔎 <b>Indicators:</b>\n")
	b.WriteString(fmt.Sprintf("  RSI: %s | ADX: %s | ATR: %s\n", num(d.RSI), num(d.ADX), num(d.ATR)))
	b.WriteString(fmt.Sprintf("  EMA20/50: %s / %s\n", num(d.EMA20), num(d.EMA50)))
	b.WriteString(fmt.Sprintf("  Support/Resistance: %s / %s\n", num(d.Support), num(d.Resistance)))
	return b.String()
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatSentiment formats a market-wide reading.
func FormatSentiment(s *model.MarketSentiment) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌐 <b>Market sentiment</b> | %s\n\n", s.Timestamp.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("NIFTY 50: %+.2f%%\n", s.IndexChangePct))
	b.WriteString(fmt.Sprintf("India VIX: %.2f\n", s.VIX))
	b.WriteString(fmt.Sprintf("Advance/Decline: %.2f\n", s.AdvanceDecline))
	return b.String()
}

// FormatDigest summarises a day's recommendations, actionable ones first.
func FormatDigest(day time.Time, results []*model.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily digest</b> | %s\n\n", day.Format("2006-01-02")))
	if len(results) == 0 {
		b.WriteString("No signals recorded today.")
		return b.String()
	}

	sorted := append([]*model.AnalysisResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := sorted[i].Signal.Actionable(), sorted[j].Signal.Actionable()
		if ai != aj {
			return ai
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})

	counts := map[model.Signal]int{}
	for _, r := range sorted {
		counts[r.Signal]++
		b.WriteString(fmt.Sprintf("%s %s %s @ %.2f (%.0f%%, risk %.1f)\n",
			signalIcon(r.Signal), html.EscapeString(r.Symbol), r.Signal, r.CurrentPrice, r.Confidence*100, r.RiskScore))
	}
	b.WriteString(fmt.Sprintf("\nBUY %d | SELL %d | HOLD %d",
		counts[model.SignalBuy], counts[model.SignalSell], counts[model.SignalHold]))
	return b.String()
}

// FormatStatus formats open positions.
func FormatStatus(state model.PortfolioState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Portfolio</b>\n\n")
	b.WriteString(fmt.Sprintf("Value: %.0f\n", state.Value))
	b.WriteString(fmt.Sprintf("Open positions: %d\n", len(state.Positions)))
	for _, p := range state.Positions {
		b.WriteString(fmt.Sprintf("  %s %s x%d @ %.2f (SL %.2f, T %.2f)\n",
			html.EscapeString(p.Symbol), p.Side, p.Quantity, p.Entry, p.StopLoss, p.Target))
	}
	if !state.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}
