package model

// StrategyConfig describes one named rule set.
// Weight is carried for reporting; aggregation weighs by confidence only.
type StrategyConfig struct {
	Name           string   `json:"name" yaml:"name"`
	Indicators     []string `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	BuyConditions  []string `json:"buy_conditions" yaml:"buy_conditions"`
	SellConditions []string `json:"sell_conditions" yaml:"sell_conditions"`
	Weight         float64  `json:"weight" yaml:"weight"`
}

// StrategyBook is an ordered, name-indexed set of strategies.
// It is read-only after construction and safe for concurrent readers.
type StrategyBook struct {
	strategies []StrategyConfig
	index      map[string]int
}

// NewStrategyBook builds a book. A later config with a duplicate name replaces the earlier one in place.
func NewStrategyBook(configs ...StrategyConfig) *StrategyBook {
	b := &StrategyBook{index: make(map[string]int, len(configs))}
	for _, c := range configs {
		if i, ok := b.index[c.Name]; ok {
			b.strategies[i] = c
			continue
		}
		b.index[c.Name] = len(b.strategies)
		b.strategies = append(b.strategies, c)
	}
	return b
}

// Len returns the number of strategies.
func (b *StrategyBook) Len() int { return len(b.strategies) }

// Get returns a strategy by name.
func (b *StrategyBook) Get(name string) (StrategyConfig, bool) {
	i, ok := b.index[name]
	if !ok {
		return StrategyConfig{}, false
	}
	return b.strategies[i], true
}

// Strategies returns the strategies in book order.
func (b *StrategyBook) Strategies() []StrategyConfig {
	out := make([]StrategyConfig, len(b.strategies))
	copy(out, b.strategies)
	return out
}

// Names returns strategy names in book order.
func (b *StrategyBook) Names() []string {
	out := make([]string, len(b.strategies))
	for i, s := range b.strategies {
		out[i] = s.Name
	}
	return out
}
