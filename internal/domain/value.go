package domain

import "math"

// VarID is a dense, process-wide identifier for a registered attribute.
// Assigned by Config.GetOrCreateAttr and never reused.
type VarID int32

// InvalidVarID is the sentinel for "not yet assigned", the Go analogue
// of the source's UINT_MAX placeholder.
const InvalidVarID VarID = -1

// StrID is a dense, per-attribute identifier for an interned string
// literal, starting at zero for each attribute.
type StrID int32

// InvalidStrID is the sentinel for "not yet interned".
const InvalidStrID StrID = -1

// PredID is a dense, process-wide identifier for a canonical predicate,
// assigned by the predicate map. Stable for the Config's lifetime.
type PredID uint64

// InvalidPredID is the sentinel value a node's id holds before
// AssignPredID runs.
const InvalidPredID PredID = math.MaxUint64

// ValueType tags the payload a Value carries.
type ValueType int

const (
	ValueUnspecified ValueType = iota
	ValueBool
	ValueInt64
	ValueFloat64
	ValueString
	ValueIntList
	ValueStringList
	ValueSegmentList
	ValueFrequencyCapList
)

func (t ValueType) String() string {
	switch t {
	case ValueBool:
		return "bool"
	case ValueInt64:
		return "int64"
	case ValueFloat64:
		return "float64"
	case ValueString:
		return "string"
	case ValueIntList:
		return "int_list"
	case ValueStringList:
		return "string_list"
	case ValueSegmentList:
		return "segment_list"
	case ValueFrequencyCapList:
		return "frequency_cap_list"
	default:
		return "unspecified"
	}
}

// FloatEpsilon is the single fixed epsilon used everywhere float
// equality matters: matcher EQ, matcher NE (via negation), and
// structural equality in the predicate map. The bound analyzer's
// LT/GT tightening intentionally uses DBLEpsilon instead, preserving
// the source's __DBL_EPSILON__ choice there (see internal/boundanalyzer).
const FloatEpsilon = 1e-9

// DBLEpsilon is the float64 machine epsilon (the gap between 1.0 and
// the next representable value), matching
// the C source's __DBL_EPSILON__ literal used only by the bound
// analyzer's LT/GT tightening.
const DBLEpsilon = 2.220446049250313e-16

// FloatEqual implements feq: fixed-epsilon float equality.
func FloatEqual(a, b float64) bool {
	return math.Abs(a-b) <= FloatEpsilon
}

// FloatNotEqual implements fne as the negation of feq.
func FloatNotEqual(a, b float64) bool {
	return !FloatEqual(a, b)
}

// StringValue is a string belonging to a specific attribute: the pair
// (variable_id, interned_string_id). Two StringValues are equal iff
// both components are equal; comparing StringValues that belong to
// different variables is a contract violation the matcher asserts
// against explicitly (see internal/matcher).
type StringValue struct {
	VarID VarID
	StrID StrID

	// Literal holds the raw text before AssignStrID interns it. It is
	// retained afterward for diagnostics but must not be used for
	// equality - StrID is the only thing that is canonical post-compile.
	Literal string
}

// Segment is one entry of a SegmentList value: a segment id paired
// with the microsecond timestamp the caller's event recorded for it.
type Segment struct {
	ID        int64
	Timestamp int64 // microseconds since epoch
}

// FrequencyCap is one entry of a FrequencyCapList value.
type FrequencyCap struct {
	Type      string // "advertiser" | "campaign" | "flight" | "product"
	ID        int64
	Namespace StringValue
	Value     int64

	// Timestamp and HasTimestamp distinguish "no prior impression
	// recorded" from "recorded at time zero" per the WITHIN_CAP
	// semantics in internal/matcher.
	Timestamp    int64 // microseconds since epoch
	HasTimestamp bool
}

// Value is the tagged primitive carried by leaf predicates and by
// events. Only the field matching Tag is meaningful; this mirrors the
// C source's union via a flat struct with an explicit discriminant,
// the same shape internal/tree.Node uses for node payloads.
type Value struct {
	Tag ValueType

	Bool  bool
	Int   int64
	Float float64
	Str   StringValue

	IntList          []int64
	StringList       []StringValue
	SegmentList      []Segment
	FrequencyCapList []FrequencyCap
}

func BoolValue(v bool) Value              { return Value{Tag: ValueBool, Bool: v} }
func IntValue(v int64) Value              { return Value{Tag: ValueInt64, Int: v} }
func FloatValue(v float64) Value          { return Value{Tag: ValueFloat64, Float: v} }
func StringLiteral(literal string) Value  { return Value{Tag: ValueString, Str: StringValue{VarID: InvalidVarID, StrID: InvalidStrID, Literal: literal}} }
func IntListValue(v []int64) Value        { return Value{Tag: ValueIntList, IntList: v} }
func StringListLiteral(lits []string) Value {
	sv := make([]StringValue, len(lits))
	for i, l := range lits {
		sv[i] = StringValue{VarID: InvalidVarID, StrID: InvalidStrID, Literal: l}
	}
	return Value{Tag: ValueStringList, StringList: sv}
}
func SegmentListValue(v []Segment) Value             { return Value{Tag: ValueSegmentList, SegmentList: v} }
func FrequencyCapListValue(v []FrequencyCap) Value   { return Value{Tag: ValueFrequencyCapList, FrequencyCapList: v} }
