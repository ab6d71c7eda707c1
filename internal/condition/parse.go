package condition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"TradeScout/internal/model"
)

// ErrMalformed is wrapped by Parse for rules that cannot be understood.
var ErrMalformed = errors.New("malformed condition")

// Parse turns a rule string into an Expr. On failure it returns an Inert
// expression together with an error wrapping ErrMalformed, so callers that
// only need evaluation can ignore the error.
func Parse(src string) (Expr, error) {
	switch {
	case strings.Contains(src, "RSI"):
		return parseThreshold(src, model.ColRSI)
	case strings.Contains(src, "MACD"):
		return parseCrossover(src)
	case strings.Contains(src, "EMA"):
		return parseEMACompare(src)
	}
	return inert(src, "unrecognised pattern")
}

// ParseAll parses every rule and collects the failures.
func ParseAll(srcs []string) ([]Expr, error) {
	exprs := make([]Expr, len(srcs))
	var errs []error
	for i, s := range srcs {
		e, err := Parse(s)
		if err != nil {
			errs = append(errs, err)
		}
		exprs[i] = e
	}
	return exprs, errors.Join(errs...)
}

func parseThreshold(src, field string) (Expr, error) {
	var (
		op  Op
		sep string
	)
	switch {
	case strings.Contains(src, "<"):
		op, sep = OpLess, "<"
	case strings.Contains(src, ">"):
		op, sep = OpGreater, ">"
	default:
		return inert(src, "no comparison operator")
	}
	literal := strings.TrimSpace(strings.Split(src, sep)[1])
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return inert(src, fmt.Sprintf("bad literal %q", literal))
	}
	return Threshold{Field: field, Op: op, Value: v}, nil
}

func parseCrossover(src string) (Expr, error) {
	switch {
	case strings.Contains(src, "crossover_up"):
		return Crossover{Field: model.ColMACD, Reference: model.ColMACDSignal, Direction: CrossUp}, nil
	case strings.Contains(src, "crossover_down"):
		return Crossover{Field: model.ColMACD, Reference: model.ColMACDSignal, Direction: CrossDown}, nil
	}
	return inert(src, "unknown MACD pattern")
}

func parseEMACompare(src string) (Expr, error) {
	parts := strings.Fields(src)
	if len(parts) != 3 {
		return inert(src, "want three tokens")
	}
	left, ok := emaColumn(parts[0])
	if !ok {
		return inert(src, fmt.Sprintf("bad EMA token %q", parts[0]))
	}
	right, ok := emaColumn(parts[2])
	if !ok {
		return inert(src, fmt.Sprintf("bad EMA token %q", parts[2]))
	}
	var op Op
	switch parts[1] {
	case "<":
		op = OpLess
	case ">":
		op = OpGreater
	default:
		return inert(src, fmt.Sprintf("unsupported operator %q", parts[1]))
	}
	return FieldCompare{Left: left, Op: op, Right: right}, nil
}

// emaColumn maps a token such as "EMA_20" to its column name.
func emaColumn(tok string) (string, bool) {
	pieces := strings.Split(tok, "_")
	if len(pieces) < 2 || pieces[1] == "" {
		return "", false
	}
	return "EMA_" + pieces[1], true
}

func inert(src, reason string) (Expr, error) {
	return Inert{Source: src, Reason: reason}, fmt.Errorf("%w: %q: %s", ErrMalformed, src, reason)
}
