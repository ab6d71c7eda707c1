package strategy

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"TradeScout/internal/condition"
	"TradeScout/internal/model"
)

// ErrConfigUnavailable is wrapped by LoadBook when the strategy file cannot be used.
var ErrConfigUnavailable = errors.New("strategy config unavailable")

// DefaultBook returns the built-in momentum, trend-following and
// mean-reversion strategies.
func DefaultBook() *model.StrategyBook {
	return model.NewStrategyBook(
		model.StrategyConfig{
			Name:           "momentum",
			Indicators:     []string{"RSI", "MACD", "Stochastic"},
			BuyConditions:  []string{"RSI < 35", "MACD_crossover_up"},
			SellConditions: []string{"RSI > 70", "MACD_crossover_down"},
			Weight:         0.3,
		},
		model.StrategyConfig{
			Name:           "trend_following",
			Indicators:     []string{"EMA", "ADX", "ParabolicSAR"},
			BuyConditions:  []string{"EMA_20 > EMA_50", "ADX > 25"},
			SellConditions: []string{"EMA_20 < EMA_50"},
			Weight:         0.4,
		},
		model.StrategyConfig{
			Name:           "mean_reversion",
			Indicators:     []string{"Bollinger", "RSI", "ATR"},
			BuyConditions:  []string{"Price < Bollinger_Lower", "RSI < 30"},
			SellConditions: []string{"Price > Bollinger_Upper", "RSI > 70"},
			Weight:         0.3,
		},
	)
}

// LoadBook reads a strategy book from a YAML or JSON file whose top level
// maps strategy names to their configuration. File order is preserved.
func LoadBook(path string) (*model.StrategyBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	return ParseBook(data)
}

// ParseBook decodes a strategy book document.
func ParseBook(data []byte) (*model.StrategyBook, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must map strategy names to configs", ErrConfigUnavailable)
	}

	root := doc.Content[0]
	configs := make([]model.StrategyConfig, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var cfg model.StrategyConfig
		if err := root.Content[i+1].Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: strategy %q: %v", ErrConfigUnavailable, name, err)
		}
		cfg.Name = name
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: no strategies defined", ErrConfigUnavailable)
	}
	return model.NewStrategyBook(configs...), nil
}

// LoadBookOrDefault loads path, falling back to DefaultBook on any failure.
// Rules that will never match are logged once at load time.
func LoadBookOrDefault(path string, log zerolog.Logger) *model.StrategyBook {
	book, err := LoadBook(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("using built-in strategy book")
		book = DefaultBook()
	}
	for _, cfg := range book.Strategies() {
		rules := append(append([]string{}, cfg.BuyConditions...), cfg.SellConditions...)
		if _, err := condition.ParseAll(rules); err != nil {
			log.Debug().Err(err).Str("strategy", cfg.Name).Msg("strategy has inert conditions")
		}
	}
	log.Info().Strs("strategies", book.Names()).Msg("strategy book loaded")
	return book
}
