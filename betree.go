// Package betree is the public facade over the engine's internal
// packages: Config/Interner, the expression tree, the compiler passes,
// the matcher and the bound analyzer. It exposes exactly the surface
// described as the core's external interfaces - constructors,
// compilation, matching and bound analysis - and nothing of the
// enclosing index, parser or wire format the core deliberately leaves
// to its host.
package betree

import (
	"github.com/solatis/betree/internal/boundanalyzer"
	"github.com/solatis/betree/internal/compiler"
	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/matcher"
	"github.com/solatis/betree/internal/predmap"
	"github.com/solatis/betree/internal/tree"
)

// Re-exported domain types forming the Config API and value model.
type (
	Config         = domain.Config
	ConfigOption   = domain.ConfigOption
	AttrSpec       = domain.AttrSpec
	AttrDomain     = domain.AttrDomain
	ValueType      = domain.ValueType
	Value          = domain.Value
	VarID          = domain.VarID
	StrID          = domain.StrID
	PredID         = domain.PredID
	StringValue    = domain.StringValue
	Segment        = domain.Segment
	FrequencyCap   = domain.FrequencyCap
	Event          = domain.Event
	EventPredicate = domain.EventPredicate
	ExprID         = domain.ExprID
)

const (
	ValueBool             = domain.ValueBool
	ValueInt64            = domain.ValueInt64
	ValueFloat64          = domain.ValueFloat64
	ValueString           = domain.ValueString
	ValueIntList          = domain.ValueIntList
	ValueStringList       = domain.ValueStringList
	ValueSegmentList      = domain.ValueSegmentList
	ValueFrequencyCapList = domain.ValueFrequencyCapList
)

var (
	NewConfig             = domain.NewConfig
	WithLogger            = domain.WithLogger
	WithFrequencyTypeIDs  = domain.WithFrequencyTypeIDs
	NewEvent              = domain.NewEvent
	NewExprID             = domain.NewExprID
	BoolValue             = domain.BoolValue
	IntValue              = domain.IntValue
	FloatValue            = domain.FloatValue
	StringLiteral         = domain.StringLiteral
	IntListValue          = domain.IntListValue
	StringListLiteral     = domain.StringListLiteral
	SegmentListValue      = domain.SegmentListValue
	FrequencyCapListValue = domain.FrequencyCapListValue
)

// Re-exported tree types and constructors forming the Expression API.
type (
	Node       = tree.Node
	Tag        = tree.Tag
	Op         = tree.Op
	SetOperand = tree.SetOperand
)

const (
	TagNumericCompare = tree.TagNumericCompare
	TagEquality       = tree.TagEquality
	TagBool           = tree.TagBool
	TagSet            = tree.TagSet
	TagList           = tree.TagList
	TagFrequencyCap   = tree.TagFrequencyCap
	TagSegment        = tree.TagSegment
	TagGeo            = tree.TagGeo
	TagString         = tree.TagString
)

const (
	OpLT           = tree.OpLT
	OpLE           = tree.OpLE
	OpGT           = tree.OpGT
	OpGE           = tree.OpGE
	OpEQ           = tree.OpEQ
	OpNE           = tree.OpNE
	OpIn           = tree.OpIn
	OpNotIn        = tree.OpNotIn
	OpOneOf        = tree.OpOneOf
	OpNoneOf       = tree.OpNoneOf
	OpAllOf        = tree.OpAllOf
	OpWithin       = tree.OpWithin
	OpBefore       = tree.OpBefore
	OpWithinRadius = tree.OpWithinRadius
	OpContains     = tree.OpContains
	OpStartsWith   = tree.OpStartsWith
	OpEndsWith     = tree.OpEndsWith
)

var (
	NumericCompare   = tree.NumericCompare
	Equality         = tree.Equality
	And              = tree.And
	Or               = tree.Or
	Not              = tree.Not
	Variable         = tree.Variable
	Set              = tree.Set
	List             = tree.List
	FrequencyCapNode = tree.FrequencyCap
	SegmentNode      = tree.Segment
	GeoNode          = tree.Geo
	StringNode       = tree.String
	CloneNode        = tree.Clone
	FreeNode         = tree.Free
	EqExpr           = tree.Eq
)

// PredicateMap is the content-addressed predicate deduplicator, re-
// exported so a host can share one across many expressions compiled
// against the same Config.
type PredicateMap = predmap.Map

// NewPredicateMap creates an empty predicate map.
func NewPredicateMap() *PredicateMap { return predmap.New() }

// Compiler API.
var (
	AssignVariableID       = compiler.AssignVariableID
	AssignStrID            = compiler.AssignStrID
	AssignPredID           = compiler.AssignPredID
	AllVariablesInConfig   = compiler.AllVariablesInConfig
	AllBoundedStringsValid = compiler.AllBoundedStringsValid
)

// Compile runs all three compiler passes against root, returning a
// validation error before the (possibly expensive) predicate map
// insertion would run; see compiler.Compile for which failures return
// an error and which panic.
func Compile(cfg *Config, pm *PredicateMap, root *Node) error {
	return compiler.Compile(cfg, pm, root)
}

// Match API.
type (
	Memoize = matcher.Memoize
	Report  = matcher.Report
)

var (
	NewMemoize = matcher.NewMemoize
	NewReport  = matcher.NewReport
)

// MatchNode evaluates root against ev under cfg, consulting and
// updating memo, and accumulating counters into report. Either may be
// nil.
func MatchNode(cfg *Config, ev *Event, root *Node, memo *Memoize, report *Report) bool {
	return matcher.MatchNode(cfg, ev, root, memo, report)
}

// Analysis API.
type Bound = boundanalyzer.Bound

// GetVariableBound computes the interval over dom.VarID that root can
// constrain, per internal/boundanalyzer's documented AND/OR folding.
func GetVariableBound(dom *AttrDomain, root *Node) Bound {
	return boundanalyzer.GetVariableBound(dom, root)
}

// EmptyBound returns dom's inverted interval, the starting point for a
// caller folding bounds from several independently compiled trees via
// Bound.Merge.
func EmptyBound(dom *AttrDomain) Bound {
	return boundanalyzer.EmptyBound(dom)
}
