package tree

import "github.com/solatis/betree/internal/domain"

// Eq implements eq_expr: strict structural equality by tag and payload.
// Floats compare via domain.FloatEqual; strings compare by (var_id,
// str_id); lists compare by length then element-wise order; Bool
// combinators compare by op then recursive equality of children;
// Special predicates compare every payload field, pattern strings
// lexically. Eq does not consult either node's ID.
func Eq(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Op != b.Op {
		return false
	}

	switch a.Tag {
	case TagNumericCompare, TagEquality:
		return a.AttrVar == b.AttrVar && valueEq(a.Value, b.Value)

	case TagBool:
		switch a.Op {
		case OpAnd, OpOr:
			return Eq(a.LHS, b.LHS) && Eq(a.RHS, b.RHS)
		case OpNot:
			return Eq(a.LHS, b.LHS)
		case OpVariable:
			return a.AttrVar == b.AttrVar
		}
		return false

	case TagSet:
		return setOperandEq(a.SetLeft, b.SetLeft) && setOperandEq(a.SetRight, b.SetRight)

	case TagList:
		return a.AttrVar == b.AttrVar && valueEq(a.Value, b.Value)

	case TagFrequencyCap:
		return a.FreqType == b.FreqType &&
			a.FreqNamespace.VarID == b.FreqNamespace.VarID &&
			a.FreqNamespace.StrID == b.FreqNamespace.StrID &&
			a.FreqValue == b.FreqValue &&
			a.FreqLength == b.FreqLength

	case TagSegment:
		return a.SegmentID == b.SegmentID && a.SegmentSeconds == b.SegmentSeconds

	case TagGeo:
		return a.GeoLat == b.GeoLat && a.GeoLon == b.GeoLon && a.GeoRadius == b.GeoRadius

	case TagString:
		return a.AttrVar == b.AttrVar && a.StringPattern == b.StringPattern

	default:
		return false
	}
}

func setOperandEq(a, b SetOperand) bool {
	if a.IsVariable != b.IsVariable {
		return false
	}
	if a.IsVariable {
		return a.VarID == b.VarID
	}
	return valueEq(a.Value, b.Value)
}

func valueEq(a, b domain.Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case domain.ValueBool:
		return a.Bool == b.Bool
	case domain.ValueInt64:
		return a.Int == b.Int
	case domain.ValueFloat64:
		return domain.FloatEqual(a.Float, b.Float)
	case domain.ValueString:
		return a.Str.VarID == b.Str.VarID && a.Str.StrID == b.Str.StrID
	case domain.ValueIntList:
		if len(a.IntList) != len(b.IntList) {
			return false
		}
		for i := range a.IntList {
			if a.IntList[i] != b.IntList[i] {
				return false
			}
		}
		return true
	case domain.ValueStringList:
		if len(a.StringList) != len(b.StringList) {
			return false
		}
		for i := range a.StringList {
			if a.StringList[i].VarID != b.StringList[i].VarID || a.StringList[i].StrID != b.StringList[i].StrID {
				return false
			}
		}
		return true
	default:
		return false
	}
}
