// Package boundanalyzer implements the Bound Analyzer:
// get_variable_bound, a static symbolic inference of the value
// interval an expression tree can constrain a single attribute to.
// Used by a surrounding index structure to prune candidate expressions
// before ever invoking the matcher - this package never reads an Event.
package boundanalyzer

import (
	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/tree"
)

// Bound is the inferred interval over one attribute's domain. For
// Bool/Int the interval is [MinInt,MaxInt]; for Float, [MinFloat,
// MaxFloat]; for String, [MinStrID,MaxStrID] over interned ids. Which
// pair is meaningful is determined by the domain's ValueType, the same
// convention domain.AttrDomain uses.
type Bound struct {
	MinInt, MaxInt     int64
	MinFloat, MaxFloat float64
	MinStrID, MaxStrID domain.StrID
}

// FullBound returns dom's entire declared domain: what
// GetVariableBound returns when the expression never touches the
// attribute, and what a NE predicate folds to (it rules out exactly
// one value, which no interval can represent precisely).
func FullBound(dom *domain.AttrDomain) Bound {
	switch dom.ValueType {
	case domain.ValueBool, domain.ValueInt64, domain.ValueIntList:
		return Bound{MinInt: dom.MinInt, MaxInt: dom.MaxInt}
	case domain.ValueFloat64:
		return Bound{MinFloat: dom.MinFloat, MaxFloat: dom.MaxFloat}
	case domain.ValueString:
		return Bound{MinStrID: dom.MinStrID, MaxStrID: dom.MaxStrID}
	default:
		domain.Violate("FullBound", "bound analysis is only supported for Bool/Int/Float/String attributes")
		return Bound{}
	}
}

// EmptyBound returns the inverted interval for dom's value type: Min set
// above Max so that Merge-ing any real bound into it always widens to
// exactly that bound. This is the "clear" half of the source's
// bound_clear/bound_copy pair, kept separate from FullBound (the
// "untouched expression" result) since the two only coincide by
// accident for unbounded domains.
func EmptyBound(dom *domain.AttrDomain) Bound {
	switch dom.ValueType {
	case domain.ValueBool, domain.ValueInt64, domain.ValueIntList:
		return Bound{MinInt: dom.MaxInt, MaxInt: dom.MinInt}
	case domain.ValueFloat64:
		return Bound{MinFloat: dom.MaxFloat, MaxFloat: dom.MinFloat}
	case domain.ValueString:
		return Bound{MinStrID: dom.MaxStrID, MaxStrID: dom.MinStrID}
	default:
		domain.Violate("EmptyBound", "bound analysis is only supported for Bool/Int/Float/String attributes")
		return Bound{}
	}
}

// Merge implements the source's bound_copy: widening b to also cover
// other, the same union combination OR uses internally. Exposed as a
// method so a caller folding bounds from several independent expressions
// (as an enclosing index does across many compiled trees) can do so
// without reaching into this package's unexported union helper.
func (b Bound) Merge(valueType domain.ValueType, other Bound) Bound {
	return union(valueType, b, other)
}

// GetVariableBound implements get_variable_bound: the tightest interval
// over dom.VarID that root can constrain, or dom's full domain if root
// never references it.
//
// AND combines its two sides by intersection (both constraints must
// hold simultaneously, so the true bound can only be narrower); OR
// combines by union (either disjunct may be the one that holds, so the
// bound must cover both) - and if either OR branch leaves the variable
// unconstrained, the whole OR is unconstrained, since satisfying it
// through that branch places no limit on the variable at all. Panics
// via domain.Violate if dom's value type is not one of
// Bool/Int/Float/String.
func GetVariableBound(dom *domain.AttrDomain, root *tree.Node) Bound {
	switch dom.ValueType {
	case domain.ValueBool, domain.ValueInt64, domain.ValueFloat64, domain.ValueString:
	default:
		domain.Violate("GetVariableBound", "bound analysis is only supported for Bool/Int/Float/String attributes")
	}

	bound, touched := recurse(dom, root, false)
	if !touched {
		return FullBound(dom)
	}
	return bound
}

func recurse(dom *domain.AttrDomain, n *tree.Node, reversed bool) (Bound, bool) {
	if n == nil {
		return Bound{}, false
	}

	switch n.Tag {
	case tree.TagBool:
		switch n.Op {
		case tree.OpNot:
			return recurse(dom, n.LHS, !reversed)

		case tree.OpAnd:
			lb, lt := recurse(dom, n.LHS, reversed)
			rb, rt := recurse(dom, n.RHS, reversed)
			switch {
			case lt && rt:
				return intersect(dom.ValueType, lb, rb), true
			case lt:
				return lb, true
			case rt:
				return rb, true
			default:
				return Bound{}, false
			}

		case tree.OpOr:
			lb, lt := recurse(dom, n.LHS, reversed)
			rb, rt := recurse(dom, n.RHS, reversed)
			if lt && rt {
				return union(dom.ValueType, lb, rb), true
			}
			return Bound{}, false

		case tree.OpVariable:
			if n.AttrVar != dom.VarID {
				return Bound{}, false
			}
			if dom.ValueType != domain.ValueBool {
				domain.Violate("GetVariableBound", "domain and expression type mismatch")
			}
			if reversed {
				return Bound{MinInt: 0, MaxInt: 0}, true
			}
			return Bound{MinInt: 1, MaxInt: 1}, true
		}
		return Bound{}, false

	case tree.TagNumericCompare:
		if n.AttrVar != dom.VarID {
			return Bound{}, false
		}
		return numericCompareBound(dom, n.Op, n.Value, reversed), true

	case tree.TagEquality:
		if n.AttrVar != dom.VarID {
			return Bound{}, false
		}
		return equalityBound(dom, n.Op, n.Value, reversed), true

	default:
		// List, Set and Special predicates contribute no bound
		// information.
		return Bound{}, false
	}
}

func effectiveOp(op tree.Op, reversed bool) tree.Op {
	if !reversed {
		return op
	}
	switch op {
	case tree.OpLT:
		return tree.OpGE
	case tree.OpLE:
		return tree.OpGT
	case tree.OpGT:
		return tree.OpLE
	case tree.OpGE:
		return tree.OpLT
	default:
		return op
	}
}

func numericCompareBound(dom *domain.AttrDomain, op tree.Op, v domain.Value, reversed bool) Bound {
	op = effectiveOp(op, reversed)

	switch v.Tag {
	case domain.ValueInt64:
		k := v.Int
		switch op {
		case tree.OpLT:
			return Bound{MinInt: dom.MinInt, MaxInt: k - 1}
		case tree.OpLE:
			return Bound{MinInt: dom.MinInt, MaxInt: k}
		case tree.OpGT:
			return Bound{MinInt: k + 1, MaxInt: dom.MaxInt}
		case tree.OpGE:
			return Bound{MinInt: k, MaxInt: dom.MaxInt}
		}

	case domain.ValueFloat64:
		k := v.Float
		switch op {
		case tree.OpLT:
			return Bound{MinFloat: dom.MinFloat, MaxFloat: k - domain.DBLEpsilon}
		case tree.OpLE:
			return Bound{MinFloat: dom.MinFloat, MaxFloat: k}
		case tree.OpGT:
			return Bound{MinFloat: k + domain.DBLEpsilon, MaxFloat: dom.MaxFloat}
		case tree.OpGE:
			return Bound{MinFloat: k, MaxFloat: dom.MaxFloat}
		}
	}
	return FullBound(dom)
}

func equalityBound(dom *domain.AttrDomain, op tree.Op, v domain.Value, reversed bool) Bound {
	// NE under non-reversal cannot tighten the bound (any value except
	// k remains possible) so it expands to the full domain; under
	// reversal NOT(x != k) behaves exactly as EQ on k.
	isEQ := (op == tree.OpEQ) != reversed
	if !isEQ {
		return FullBound(dom)
	}

	switch v.Tag {
	case domain.ValueInt64:
		return Bound{MinInt: v.Int, MaxInt: v.Int}
	case domain.ValueFloat64:
		return Bound{MinFloat: v.Float, MaxFloat: v.Float}
	case domain.ValueString:
		return Bound{MinStrID: v.Str.StrID, MaxStrID: v.Str.StrID}
	}
	return FullBound(dom)
}

func intersect(valueType domain.ValueType, a, b Bound) Bound {
	switch valueType {
	case domain.ValueBool, domain.ValueInt64, domain.ValueIntList:
		return Bound{MinInt: maxInt64(a.MinInt, b.MinInt), MaxInt: minInt64(a.MaxInt, b.MaxInt)}
	case domain.ValueFloat64:
		return Bound{MinFloat: maxFloat64(a.MinFloat, b.MinFloat), MaxFloat: minFloat64(a.MaxFloat, b.MaxFloat)}
	case domain.ValueString:
		return Bound{MinStrID: maxStrID(a.MinStrID, b.MinStrID), MaxStrID: minStrID(a.MaxStrID, b.MaxStrID)}
	default:
		return a
	}
}

func union(valueType domain.ValueType, a, b Bound) Bound {
	switch valueType {
	case domain.ValueBool, domain.ValueInt64, domain.ValueIntList:
		return Bound{MinInt: minInt64(a.MinInt, b.MinInt), MaxInt: maxInt64(a.MaxInt, b.MaxInt)}
	case domain.ValueFloat64:
		return Bound{MinFloat: minFloat64(a.MinFloat, b.MinFloat), MaxFloat: maxFloat64(a.MaxFloat, b.MaxFloat)}
	case domain.ValueString:
		return Bound{MinStrID: minStrID(a.MinStrID, b.MinStrID), MaxStrID: maxStrID(a.MaxStrID, b.MaxStrID)}
	default:
		return a
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minStrID(a, b domain.StrID) domain.StrID {
	if a < b {
		return a
	}
	return b
}

func maxStrID(a, b domain.StrID) domain.StrID {
	if a > b {
		return a
	}
	return b
}
