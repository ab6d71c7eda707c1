package strategy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"TradeScout/internal/model"
)

func TestScore_BuyWhenMostBuyRulesHold(t *testing.T) {
	cfg := model.StrategyConfig{
		Name:           "trend",
		BuyConditions:  []string{"EMA_9 > EMA_20", "EMA_20 > EMA_50"},
		SellConditions: []string{"EMA_20 < EMA_50"},
	}
	latest := model.NewRow(map[string]float64{model.ColEMA9: 110, model.ColEMA20: 105, model.ColEMA50: 100})
	sig := Score(cfg, latest, model.NewRow(nil))
	if sig.Signal != model.SignalBuy || sig.Confidence != 1 {
		t.Errorf("expected BUY at 1.0, got %s at %.2f", sig.Signal, sig.Confidence)
	}
	if sig.Strategy != "trend" {
		t.Errorf("strategy name not carried: %q", sig.Strategy)
	}
}

func TestScore_SellWhenSellRulesHold(t *testing.T) {
	cfg := model.StrategyConfig{
		BuyConditions:  []string{"RSI < 35", "MACD_crossover_up"},
		SellConditions: []string{"RSI > 70", "MACD_crossover_down"},
	}
	prev := model.NewRow(map[string]float64{model.ColMACD: 0.5, model.ColMACDSignal: 0.2})
	latest := model.NewRow(map[string]float64{model.ColRSI: 80, model.ColMACD: 0.1, model.ColMACDSignal: 0.2})
	sig := Score(cfg, latest, prev)
	if sig.Signal != model.SignalSell || sig.Confidence != 1 {
		t.Errorf("expected SELL at 1.0, got %s at %.2f", sig.Signal, sig.Confidence)
	}
}

func TestScore_HalfSatisfiedIsHold(t *testing.T) {
	cfg := model.StrategyConfig{
		BuyConditions:  []string{"RSI < 35", "MACD_crossover_up"},
		SellConditions: []string{"RSI > 70"},
	}
	latest := model.NewRow(map[string]float64{model.ColRSI: 20})
	sig := Score(cfg, latest, model.NewRow(nil))
	if sig.Signal != model.SignalHold || sig.Confidence != 0.5 {
		t.Errorf("expected HOLD at 0.5, got %s at %.2f", sig.Signal, sig.Confidence)
	}
}

func TestScore_EmptyBookEntryIsNoOpinion(t *testing.T) {
	sig := Score(model.StrategyConfig{Name: "empty"}, model.NewRow(nil), model.NewRow(nil))
	if sig.Signal != model.SignalHold || sig.Confidence != 0.5 {
		t.Errorf("expected HOLD at 0.5, got %s at %.2f", sig.Signal, sig.Confidence)
	}
}

func TestScore_ConfidenceInRange(t *testing.T) {
	rows := []model.Row{
		model.NewRow(nil),
		model.NewRow(map[string]float64{model.ColRSI: 10}),
		model.NewRow(map[string]float64{model.ColRSI: 90, model.ColEMA20: 1, model.ColEMA50: 2}),
	}
	for _, cfg := range DefaultBook().Strategies() {
		for _, r := range rows {
			sig := Score(cfg, r, r)
			if sig.Confidence < 0 || sig.Confidence > 1 {
				t.Errorf("%s: confidence %.2f out of range", cfg.Name, sig.Confidence)
			}
			switch sig.Signal {
			case model.SignalBuy, model.SignalSell, model.SignalHold:
			default:
				t.Errorf("%s: unexpected signal %q", cfg.Name, sig.Signal)
			}
		}
	}
}

func TestAggregate_Plurality(t *testing.T) {
	votes := []model.StrategySignal{
		{Strategy: "a", Signal: model.SignalBuy, Confidence: 1.0},
		{Strategy: "b", Signal: model.SignalSell, Confidence: 0.7},
		{Strategy: "c", Signal: model.SignalHold, Confidence: 0.5},
	}
	if got := Aggregate(votes); got != model.SignalBuy {
		t.Errorf("expected BUY, got %s", got)
	}
}

func TestAggregate_TieGoesToFirstSeen(t *testing.T) {
	votes := []model.StrategySignal{
		{Strategy: "a", Signal: model.SignalSell, Confidence: 0.5},
		{Strategy: "b", Signal: model.SignalBuy, Confidence: 0.5},
	}
	if got := Aggregate(votes); got != model.SignalSell {
		t.Errorf("expected first-seen SELL, got %s", got)
	}
	for i := 0; i < 10; i++ {
		if Aggregate(votes) != model.SignalSell {
			t.Fatal("aggregate is not deterministic")
		}
	}
}

func TestAggregate_NoBallotsIsHold(t *testing.T) {
	if got := Aggregate(nil); got != model.SignalHold {
		t.Errorf("expected HOLD for no votes, got %s", got)
	}
	votes := []model.StrategySignal{{Signal: model.SignalBuy, Confidence: 0.04}}
	if got := Aggregate(votes); got != model.SignalHold {
		t.Errorf("expected HOLD when confidences round to zero, got %s", got)
	}
}

func TestAggregate_IgnoresConfiguredWeight(t *testing.T) {
	book := model.NewStrategyBook(
		model.StrategyConfig{Name: "heavy", BuyConditions: []string{"RSI < 35"}, Weight: 100},
		model.StrategyConfig{Name: "light_a", SellConditions: []string{"RSI < 35"}, Weight: 0.01},
		model.StrategyConfig{Name: "light_b", SellConditions: []string{"RSI < 35"}, Weight: 0.01},
	)
	latest := model.NewRow(map[string]float64{model.ColRSI: 20})
	votes := Evaluate(book, latest, model.NewRow(nil))
	if got := Aggregate(votes); got != model.SignalSell {
		t.Errorf("expected SELL from two equal-confidence votes despite weight, got %s", got)
	}
}

func TestMeanConfidence(t *testing.T) {
	votes := []model.StrategySignal{{Confidence: 1}, {Confidence: 0.5}, {Confidence: 0}}
	if got := MeanConfidence(votes); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
	if MeanConfidence(nil) != 0 {
		t.Error("expected 0 for no votes")
	}
}

func TestDefaultBook(t *testing.T) {
	book := DefaultBook()
	want := []string{"momentum", "trend_following", "mean_reversion"}
	names := book.Names()
	if len(names) != len(want) {
		t.Fatalf("expected %d strategies, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("strategy %d: got %s, want %s", i, names[i], want[i])
		}
	}
	tf, _ := book.Get("trend_following")
	if tf.Weight != 0.4 || len(tf.BuyConditions) != 2 {
		t.Errorf("unexpected trend_following config %+v", tf)
	}
}

func TestParseBook_PreservesOrderYAMLAndJSON(t *testing.T) {
	yamlDoc := []byte(`
zeta:
  buy_conditions: ["RSI < 30"]
  sell_conditions: ["RSI > 70"]
  weight: 0.5
alpha:
  buy_conditions: ["EMA_20 > EMA_50"]
  sell_conditions: []
`)
	jsonDoc := []byte(`{"zeta": {"buy_conditions": ["RSI < 30"], "sell_conditions": [], "weight": 0.5},
		"alpha": {"buy_conditions": [], "sell_conditions": ["EMA_20 < EMA_50"]}}`)

	for label, doc := range map[string][]byte{"yaml": yamlDoc, "json": jsonDoc} {
		book, err := ParseBook(doc)
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		names := book.Names()
		if len(names) != 2 || names[0] != "zeta" || names[1] != "alpha" {
			t.Errorf("%s: order not preserved: %v", label, names)
		}
		z, _ := book.Get("zeta")
		if z.Weight != 0.5 || z.BuyConditions[0] != "RSI < 30" {
			t.Errorf("%s: unexpected zeta %+v", label, z)
		}
	}
}

func TestLoadBook_Failures(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadBook(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigUnavailable) {
		t.Errorf("missing file: expected ErrConfigUnavailable, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("- just\n- a list\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBook(bad); !errors.Is(err, ErrConfigUnavailable) {
		t.Errorf("list document: expected ErrConfigUnavailable, got %v", err)
	}

	book := LoadBookOrDefault(bad, zerolog.Nop())
	if book.Len() != 3 {
		t.Errorf("expected default book fallback, got %v", book.Names())
	}
}

func TestLoadBook_ShippedFileMatchesDefault(t *testing.T) {
	book, err := LoadBook(filepath.Join("..", "..", "configs", "strategies.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultBook()
	if got, want := book.Names(), def.Names(); len(got) != len(want) {
		t.Fatalf("names %v, want %v", got, want)
	}
	for _, want := range def.Strategies() {
		got, ok := book.Get(want.Name)
		if !ok {
			t.Fatalf("missing %s", want.Name)
		}
		if len(got.BuyConditions) != len(want.BuyConditions) || got.Weight != want.Weight {
			t.Errorf("%s differs: %+v vs %+v", want.Name, got, want)
		}
		for i := range want.BuyConditions {
			if got.BuyConditions[i] != want.BuyConditions[i] {
				t.Errorf("%s buy[%d] = %q, want %q", want.Name, i, got.BuyConditions[i], want.BuyConditions[i])
			}
		}
	}
}
