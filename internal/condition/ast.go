// Package condition implements the rule language used in strategy books.
//
// Rules are tiny: an RSI threshold ("RSI < 35"), a MACD signal-line crossover
// ("MACD_crossover_up") or an EMA comparison ("EMA_20 > EMA_50"). Anything
// else parses to an inert rule that never holds.
package condition

import "fmt"

// Op is a comparison operator.
type Op int

const (
	OpLess Op = iota
	OpGreater
)

func (o Op) String() string {
	if o == OpLess {
		return "<"
	}
	return ">"
}

func (o Op) apply(a, b float64) bool {
	if o == OpLess {
		return a < b
	}
	return a > b
}

// Direction is the side of a crossover.
type Direction int

const (
	CrossUp Direction = iota
	CrossDown
)

func (d Direction) String() string {
	if d == CrossUp {
		return "up"
	}
	return "down"
}

// Expr is a parsed rule. The concrete variants are Threshold, Crossover,
// FieldCompare and Inert.
type Expr interface {
	fmt.Stringer
	expr()
}

// Threshold compares a column against a literal.
type Threshold struct {
	Field string
	Op    Op
	Value float64
}

// Crossover holds when Field crosses Reference between the previous and latest rows.
type Crossover struct {
	Field     string
	Reference string
	Direction Direction
}

// FieldCompare compares two columns of the latest row.
type FieldCompare struct {
	Left  string
	Op    Op
	Right string
}

// Inert is a rule that could not be understood. It always evaluates false.
type Inert struct {
	Source string
	Reason string
}

func (Threshold) expr()    {}
func (Crossover) expr()    {}
func (FieldCompare) expr() {}
func (Inert) expr()        {}

func (t Threshold) String() string    { return fmt.Sprintf("%s %s %g", t.Field, t.Op, t.Value) }
func (c Crossover) String() string    { return fmt.Sprintf("%s cross %s %s", c.Field, c.Direction, c.Reference) }
func (f FieldCompare) String() string { return fmt.Sprintf("%s %s %s", f.Left, f.Op, f.Right) }
func (i Inert) String() string        { return fmt.Sprintf("inert(%q: %s)", i.Source, i.Reason) }
