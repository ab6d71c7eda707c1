package portfolio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"TradeScout/internal/model"
)

var (
	ErrPositionLimit = errors.New("maximum open positions reached")
	ErrAlreadyOpen   = errors.New("position already open")
	ErrNotOpen       = errors.New("no open position")
)

// Manager tracks open positions with concurrency safety and persists them
// to a JSON state file after every change.
type Manager struct {
	mu           sync.Mutex
	state        *model.PortfolioState
	filePath     string
	maxPositions int
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, value float64, maxPositions int) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if state.Value == 0 {
		state.Value = value
	}

	m := &Manager{state: state, filePath: filePath, maxPositions: maxPositions}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// State returns a copy of the current portfolio state.
func (m *Manager) State() model.PortfolioState {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.state
	cp.Positions = append([]model.Position(nil), m.state.Positions...)
	return cp
}

// CanOpen reports whether a new position in symbol is allowed, with the reason when it is not.
func (m *Manager) CanOpen(symbol string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(symbol); err != nil {
		return false, err.Error()
	}
	return true, "OK"
}

func (m *Manager) checkOpen(symbol string) error {
	if m.indexOf(symbol) >= 0 {
		return fmt.Errorf("%s: %w", symbol, ErrAlreadyOpen)
	}
	if len(m.state.Positions) >= m.maxPositions {
		return fmt.Errorf("%w (%d)", ErrPositionLimit, m.maxPositions)
	}
	return nil
}

// Open records a new position.
func (m *Manager) Open(p model.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(p.Symbol); err != nil {
		return err
	}
	if p.OpenedAt.IsZero() {
		p.OpenedAt = time.Now()
	}
	prev := m.state.Positions
	m.state.Positions = append(prev, p)
	if err := m.save(); err != nil {
		m.state.Positions = prev
		return err
	}
	return nil
}

// Close removes the position in symbol and returns it.
func (m *Manager) Close(symbol string) (model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(symbol)
	if i < 0 {
		return model.Position{}, fmt.Errorf("%s: %w", symbol, ErrNotOpen)
	}
	prev := m.state.Positions
	p := prev[i]
	kept := make([]model.Position, 0, len(prev)-1)
	kept = append(kept, prev[:i]...)
	m.state.Positions = append(kept, prev[i+1:]...)
	if err := m.save(); err != nil {
		m.state.Positions = prev
		return model.Position{}, err
	}
	return p, nil
}

func (m *Manager) indexOf(symbol string) int {
	for i, p := range m.state.Positions {
		if p.Symbol == symbol {
			return i
		}
	}
	return -1
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
