// Package tree implements the typed expression tree model: the tagged
// node struct, constructors for every node variant, structural equality,
// and deep clone. It mirrors ast.c's tagged union with a single flat Go
// struct carrying an explicit Tag discriminant and switch dispatch,
// deliberately avoiding polymorphic subclasses so the node kind set
// stays closed and exhaustive.
package tree

import "github.com/solatis/betree/internal/domain"

// Tag discriminates a Node's kind. Exactly one of the payload groups
// below is meaningful for a given Tag.
type Tag int

const (
	TagUnspecified Tag = iota
	TagNumericCompare
	TagEquality
	TagBool
	TagSet
	TagList
	TagFrequencyCap
	TagSegment
	TagGeo
	TagString
)

func (t Tag) String() string {
	switch t {
	case TagNumericCompare:
		return "numeric_compare"
	case TagEquality:
		return "equality"
	case TagBool:
		return "bool"
	case TagSet:
		return "set"
	case TagList:
		return "list"
	case TagFrequencyCap:
		return "frequency_cap"
	case TagSegment:
		return "segment"
	case TagGeo:
		return "geo"
	case TagString:
		return "string"
	default:
		return "unspecified"
	}
}

// Op discriminates the operator within a Tag. The same small integer
// space is reused across tags; a node's Tag plus Op together fully
// determine how to interpret its payload.
type Op int

const (
	OpUnspecified Op = iota

	// NumericCompare / Equality
	OpLT
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE

	// Bool
	OpAnd
	OpOr
	OpNot
	OpVariable

	// Set
	OpIn
	OpNotIn

	// List
	OpOneOf
	OpNoneOf
	OpAllOf

	// Special: FrequencyCap
	OpWithin

	// Special: Segment (also reuses OpWithin for WITHIN)
	OpBefore

	// Special: Geo
	OpWithinRadius

	// Special: String
	OpContains
	OpStartsWith
	OpEndsWith
)

func (o Op) String() string {
	switch o {
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	case OpVariable:
		return "variable"
	case OpIn:
		return "in"
	case OpNotIn:
		return "not_in"
	case OpOneOf:
		return "one_of"
	case OpNoneOf:
		return "none_of"
	case OpAllOf:
		return "all_of"
	case OpWithin:
		return "within"
	case OpBefore:
		return "before"
	case OpWithinRadius:
		return "within_radius"
	case OpContains:
		return "contains"
	case OpStartsWith:
		return "starts_with"
	case OpEndsWith:
		return "ends_with"
	default:
		return "unspecified"
	}
}

// SetOperand is one side of a Set expression: exactly one of the two
// sides in a Node's Set payload is a Variable, the other a literal
// value or list.
type SetOperand struct {
	IsVariable bool
	VarID      domain.VarID // meaningful iff IsVariable
	Value      domain.Value // meaningful iff !IsVariable: Int64, String, IntList or StringList
}

// Node is the tagged tree node. Id is the predicate id, InvalidPredID
// until assign_pred_id runs. Only the fields matching Tag (and, for
// Bool and Special, Op) are meaningful; this mirrors the flat-struct
// union internal/domain.Value uses for leaf values.
type Node struct {
	ID  domain.PredID
	Tag Tag
	Op  Op

	// NumericCompare, Equality, List, VARIABLE: the attribute this node
	// reads. Valid only after assign_variable_id.
	AttrVar domain.VarID

	// NumericCompare, Equality, List: the literal(s) compared against.
	Value domain.Value

	// Bool AND/OR/NOT: children. NOT uses LHS only.
	LHS *Node
	RHS *Node

	// Set: both operands; exactly one has IsVariable true.
	SetLeft  SetOperand
	SetRight SetOperand

	// Special: FrequencyCap
	FreqType      string
	FreqNamespace domain.StringValue
	FreqValue     int64
	FreqLength    int64

	// Special: Segment
	SegmentID      int64
	SegmentSeconds int64

	// Special: Geo
	GeoLat    float64
	GeoLon    float64
	GeoRadius float64

	// Special: String
	StringPattern string
}

// NumericCompare constructs an op x k node, op in {LT,LE,GT,GE}, k an
// Int64 or Float64 literal.
func NumericCompare(op Op, attrVar domain.VarID, value domain.Value) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagNumericCompare, Op: op, AttrVar: attrVar, Value: value}
}

// Equality constructs an op x k node, op in {EQ,NE}, k an Int64,
// Float64 or String literal.
func Equality(op Op, attrVar domain.VarID, value domain.Value) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagEquality, Op: op, AttrVar: attrVar, Value: value}
}

// And constructs a conjunction node.
func And(lhs, rhs *Node) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagBool, Op: OpAnd, LHS: lhs, RHS: rhs}
}

// Or constructs a disjunction node.
func Or(lhs, rhs *Node) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagBool, Op: OpOr, LHS: lhs, RHS: rhs}
}

// Not constructs a negation node.
func Not(child *Node) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagBool, Op: OpNot, LHS: child}
}

// Variable constructs a bare Bool-attribute reference node.
func Variable(attrVar domain.VarID) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagBool, Op: OpVariable, AttrVar: attrVar}
}

// Set constructs a Set (IN/NOT_IN) node from two operands, exactly one
// of which must have IsVariable set - enforced by assign_str_id and by
// the matcher, not by this constructor.
func Set(op Op, left, right SetOperand) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagSet, Op: op, SetLeft: left, SetRight: right}
}

// List constructs a List (ONE_OF/NONE_OF/ALL_OF) node.
func List(op Op, attrVar domain.VarID, value domain.Value) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagList, Op: op, AttrVar: attrVar, Value: value}
}

// FrequencyCap constructs a within_frequency_cap Special node.
func FrequencyCap(freqType string, namespace domain.StringValue, value, length int64) *Node {
	return &Node{
		ID: domain.InvalidPredID, Tag: TagFrequencyCap, Op: OpWithin,
		FreqType: freqType, FreqNamespace: namespace, FreqValue: value, FreqLength: length,
	}
}

// Segment constructs a segment_within / segment_before Special node:
// true iff segmentID appears in the event's segments list within (or,
// for BEFORE, strictly before) seconds of "now".
func Segment(op Op, segmentID, seconds int64) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagSegment, Op: op, SegmentID: segmentID, SegmentSeconds: seconds}
}

// Geo constructs a geo_within_radius Special node.
func Geo(lat, lon, radiusKM float64) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagGeo, Op: OpWithinRadius, GeoLat: lat, GeoLon: lon, GeoRadius: radiusKM}
}

// String constructs a contains / starts_with / ends_with Special node.
func String(op Op, attrVar domain.VarID, pattern string) *Node {
	return &Node{ID: domain.InvalidPredID, Tag: TagString, Op: op, AttrVar: attrVar, StringPattern: pattern}
}

// IsLeaf reports whether n has no Bool children to recurse into. AND,
// OR and NOT are the only non-leaf tags.
func (n *Node) IsLeaf() bool {
	return !(n.Tag == TagBool && (n.Op == OpAnd || n.Op == OpOr || n.Op == OpNot))
}
