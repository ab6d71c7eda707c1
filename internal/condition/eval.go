package condition

import "TradeScout/internal/model"

// Eval evaluates a parsed rule. Missing or undefined values make it false.
func Eval(e Expr, latest, previous model.Row) bool {
	switch x := e.(type) {
	case Threshold:
		v, ok := latest.Value(x.Field)
		return ok && x.Op.apply(v, x.Value)

	case Crossover:
		cur, ok1 := latest.Value(x.Field)
		curRef, ok2 := latest.Value(x.Reference)
		prev, ok3 := previous.Value(x.Field)
		prevRef, ok4 := previous.Value(x.Reference)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return false
		}
		if x.Direction == CrossUp {
			return cur > curRef && prev <= prevRef
		}
		return cur < curRef && prev >= prevRef

	case FieldCompare:
		l, ok1 := latest.Value(x.Left)
		r, ok2 := latest.Value(x.Right)
		return ok1 && ok2 && x.Op.apply(l, r)

	default:
		return false
	}
}

// Evaluate parses and evaluates src in one step. It never panics and
// reports false for anything it cannot understand.
func Evaluate(src string, latest, previous model.Row) bool {
	e, _ := Parse(src)
	return Eval(e, latest, previous)
}
