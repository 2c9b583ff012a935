// Package matcher implements match_node: a memoized, short-circuit
// evaluator of a compiled expression tree against one Event. It is the
// only package in the engine that touches Event data; everything
// upstream of it (interning, compiler passes, predicate map, bound
// analysis) is static, compile-time machinery.
package matcher

import (
	"math"
	"strings"

	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/tree"
)

// Well-known event attribute names the Special predicates read. A host
// registers these with the Config like any other attribute; the engine
// never invents them implicitly.
const (
	AttrNow            = "now"
	AttrFrequencyCaps  = "frequency_caps"
	AttrSegments       = "segments_with_timestamp"
	AttrLatitude       = "latitude"
	AttrLongitude      = "longitude"
)

// earthRadiusKM and toRad preserve the source's exact constants for
// geo_within_radius.
const (
	earthRadiusKM = 6372.8
	toRad         = 3.1415926536 / 180
)

// MatchNode implements match_node(config, event, node, memoize, report)
// -> bool. memoize and report may both be nil, matching the "memoize_opt
// / report_opt" optional parameters in the source's contract.
func MatchNode(cfg *domain.Config, ev *domain.Event, n *tree.Node, memo *Memoize, report *Report) bool {
	return matchInner(cfg, ev, n, memo, report, true)
}

func matchInner(cfg *domain.Config, ev *domain.Event, n *tree.Node, memo *Memoize, report *Report, topLevel bool) bool {
	if n.ID != domain.InvalidPredID {
		if result, found := memo.lookup(uint64(n.ID)); found {
			report.recordHit(topLevel)
			return result
		}
	}

	var result bool
	switch n.Tag {
	case tree.TagBool:
		result = matchBool(cfg, ev, n, memo, report)
	case tree.TagNumericCompare:
		result = matchNumericCompare(cfg, ev, n)
	case tree.TagEquality:
		result = matchEquality(cfg, ev, n)
	case tree.TagSet:
		result = matchSet(cfg, ev, n)
	case tree.TagList:
		result = matchList(cfg, ev, n)
	case tree.TagFrequencyCap:
		result = matchFrequencyCap(cfg, ev, n)
	case tree.TagSegment:
		result = matchSegment(cfg, ev, n)
	case tree.TagGeo:
		result = matchGeo(cfg, ev, n)
	case tree.TagString:
		result = matchString(cfg, ev, n)
	default:
		domain.Violate("MatchNode", "invalid node tag")
	}

	if n.ID != domain.InvalidPredID {
		memo.record(uint64(n.ID), result)
	}
	return result
}

func matchBool(cfg *domain.Config, ev *domain.Event, n *tree.Node, memo *Memoize, report *Report) bool {
	switch n.Op {
	case tree.OpAnd:
		if !matchInner(cfg, ev, n.LHS, memo, report, false) {
			return false
		}
		return matchInner(cfg, ev, n.RHS, memo, report, false)

	case tree.OpOr:
		if matchInner(cfg, ev, n.LHS, memo, report, false) {
			return true
		}
		return matchInner(cfg, ev, n.RHS, memo, report, false)

	case tree.OpNot:
		// NOT does not flip an undefined: negating a comparison, list,
		// string or Bool VARIABLE predicate whose allow-undefined
		// attribute is absent from ev yields false. Other children (Set,
		// Special, nested AND/OR/NOT) are negated as evaluated.
		if c := n.LHS; c.IsLeaf() && c.Tag != tree.TagSet && c.Tag != tree.TagFrequencyCap && c.Tag != tree.TagSegment && c.Tag != tree.TagGeo {
			if _, state := getVariable(cfg, ev, c.AttrVar); state == stateUndefined {
				return false
			}
		}
		return !matchInner(cfg, ev, n.LHS, memo, report, false)

	case tree.OpVariable:
		v, state := getVariable(cfg, ev, n.AttrVar)
		if state != stateDefined {
			return false
		}
		assertValueType(v, domain.ValueBool, "Bool VARIABLE")
		return v.Bool

	default:
		domain.Violate("matchBool", "invalid bool operation")
		return false
	}
}

// variableState is get_variable's three-outcome result.
type variableState int

const (
	stateDefined variableState = iota
	stateUndefined
	stateMissing
)

// getVariable implements get_variable: a scan of the event's predicate
// list for varID. A MISSING result (not allow_undefined, not present)
// is a fatal contract violation at the call site - the caller never
// continues past it, matching betree_assert's "Attribute is not
// defined" abort.
func getVariable(cfg *domain.Config, ev *domain.Event, varID domain.VarID) (domain.Value, variableState) {
	if v, ok := ev.GetVariable(varID); ok {
		return v, stateDefined
	}
	if cfg.IsVariableAllowUndefined(varID) {
		return domain.Value{}, stateUndefined
	}
	domain.Violate("getVariable", "attribute is not defined and is not allow-undefined")
	return domain.Value{}, stateMissing
}

// requireDefined resolves varID and panics on anything but stateDefined
// being reachable, returning (value, ok) where ok is false only for the
// allow-undefined-and-absent case (never for stateMissing, which
// getVariable already turned into a panic).
func requireDefined(cfg *domain.Config, ev *domain.Event, varID domain.VarID) (domain.Value, bool) {
	v, state := getVariable(cfg, ev, varID)
	return v, state == stateDefined
}

func assertValueType(v domain.Value, want domain.ValueType, op string) {
	if v.Tag != want {
		domain.Violate(op, "observed value type does not match predicate's declared value type")
	}
}

func matchNumericCompare(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	v, ok := requireDefined(cfg, ev, n.AttrVar)
	if !ok {
		return false
	}
	assertValueType(v, n.Value.Tag, "NumericCompare")

	switch n.Value.Tag {
	case domain.ValueInt64:
		return compareInt(n.Op, v.Int, n.Value.Int)
	case domain.ValueFloat64:
		return compareFloat(n.Op, v.Float, n.Value.Float)
	default:
		domain.Violate("NumericCompare", "value type must be Int64 or Float64")
		return false
	}
}

func compareInt(op tree.Op, a, b int64) bool {
	switch op {
	case tree.OpLT:
		return a < b
	case tree.OpLE:
		return a <= b
	case tree.OpGT:
		return a > b
	case tree.OpGE:
		return a >= b
	default:
		domain.Violate("NumericCompare", "invalid comparison operator")
		return false
	}
}

// compareFloat uses raw IEEE comparison, deliberately without epsilon -
// only Equality EQ/NE use feq/fne.
func compareFloat(op tree.Op, a, b float64) bool {
	switch op {
	case tree.OpLT:
		return a < b
	case tree.OpLE:
		return a <= b
	case tree.OpGT:
		return a > b
	case tree.OpGE:
		return a >= b
	default:
		domain.Violate("NumericCompare", "invalid comparison operator")
		return false
	}
}

func matchEquality(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	v, ok := requireDefined(cfg, ev, n.AttrVar)
	if !ok {
		return false
	}
	assertValueType(v, n.Value.Tag, "Equality")

	var eq bool
	switch n.Value.Tag {
	case domain.ValueInt64:
		eq = v.Int == n.Value.Int
	case domain.ValueFloat64:
		eq = domain.FloatEqual(v.Float, n.Value.Float)
	case domain.ValueString:
		if v.Str.VarID != n.Value.Str.VarID {
			domain.Violate("Equality", "comparing strings belonging to different variables")
		}
		eq = v.Str.StrID == n.Value.Str.StrID
	default:
		domain.Violate("Equality", "value type must be Int64, Float64 or String")
	}

	switch n.Op {
	case tree.OpEQ:
		return eq
	case tree.OpNE:
		return !eq
	default:
		domain.Violate("Equality", "invalid equality operator")
		return false
	}
}

func matchSet(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	varSide, litSide := n.SetLeft, n.SetRight
	if !varSide.IsVariable {
		varSide, litSide = n.SetRight, n.SetLeft
	}
	if litSide.IsVariable {
		domain.Violate("Set", "set expression must have exactly one variable side")
	}

	v, ok := requireDefined(cfg, ev, varSide.VarID)
	if !ok {
		return false
	}

	var found bool
	switch litSide.Value.Tag {
	case domain.ValueInt64:
		assertValueType(v, domain.ValueInt64, "Set")
		found = v.Int == litSide.Value.Int
	case domain.ValueString:
		assertValueType(v, domain.ValueString, "Set")
		found = v.Str.VarID == litSide.Value.Str.VarID && v.Str.StrID == litSide.Value.Str.StrID
	case domain.ValueIntList:
		assertValueType(v, domain.ValueInt64, "Set")
		for _, i := range litSide.Value.IntList {
			if i == v.Int {
				found = true
				break
			}
		}
	case domain.ValueStringList:
		assertValueType(v, domain.ValueString, "Set")
		for _, s := range litSide.Value.StringList {
			if s.VarID == v.Str.VarID && s.StrID == v.Str.StrID {
				found = true
				break
			}
		}
	default:
		domain.Violate("Set", "literal side must be Int64, String, IntList or StringList")
	}

	switch n.Op {
	case tree.OpIn:
		return found
	case tree.OpNotIn:
		return !found
	default:
		domain.Violate("Set", "invalid set operator")
		return false
	}
}

func matchList(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	v, ok := requireDefined(cfg, ev, n.AttrVar)
	if !ok {
		return false
	}
	assertValueType(v, n.Value.Tag, "List")

	switch n.Value.Tag {
	case domain.ValueIntList:
		return matchIntList(n.Op, v.IntList, n.Value.IntList)
	case domain.ValueStringList:
		return matchStringList(n.Op, v.StringList, n.Value.StringList)
	default:
		domain.Violate("List", "value type must be IntList or StringList")
		return false
	}
}

func matchIntList(op tree.Op, have, want []int64) bool {
	contains := func(xs []int64, x int64) bool {
		for _, v := range xs {
			if v == x {
				return true
			}
		}
		return false
	}
	switch op {
	case tree.OpOneOf:
		for _, w := range want {
			if contains(have, w) {
				return true
			}
		}
		return false
	case tree.OpNoneOf:
		for _, w := range want {
			if contains(have, w) {
				return false
			}
		}
		return true
	case tree.OpAllOf:
		for _, w := range want {
			if !contains(have, w) {
				return false
			}
		}
		return true
	default:
		domain.Violate("List", "invalid list operator")
		return false
	}
}

func matchStringList(op tree.Op, have, want []domain.StringValue) bool {
	contains := func(xs []domain.StringValue, x domain.StringValue) bool {
		for _, v := range xs {
			if v.VarID == x.VarID && v.StrID == x.StrID {
				return true
			}
		}
		return false
	}
	switch op {
	case tree.OpOneOf:
		for _, w := range want {
			if contains(have, w) {
				return true
			}
		}
		return false
	case tree.OpNoneOf:
		for _, w := range want {
			if contains(have, w) {
				return false
			}
		}
		return true
	case tree.OpAllOf:
		for _, w := range want {
			if !contains(have, w) {
				return false
			}
		}
		return true
	default:
		domain.Violate("List", "invalid list operator")
		return false
	}
}

// matchFrequencyCap implements WITHIN_CAP exactly per
// within_frequency_caps: scan the event's frequency_caps list for the
// first entry matching (type, mapped id, namespace str id); absence of
// a match is true (no cap recorded yet). requested_value / length come
// from the node, not the event.
func matchFrequencyCap(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	nowVar, ok := cfg.GetIDForAttr(AttrNow)
	if !ok {
		domain.Violate("FrequencyCap", `"now" attribute is not registered`)
	}
	nowVal, defined := requireDefined(cfg, ev, nowVar)
	if !defined {
		return false
	}
	assertValueType(nowVal, domain.ValueInt64, "FrequencyCap")
	now := nowVal.Int

	capsVar, ok := cfg.GetIDForAttr(AttrFrequencyCaps)
	if !ok {
		domain.Violate("FrequencyCap", `"frequency_caps" attribute is not registered`)
	}
	capsVal, defined := requireDefined(cfg, ev, capsVar)
	if !defined {
		return false
	}
	assertValueType(capsVal, domain.ValueFrequencyCapList, "FrequencyCap")

	typeID, ok := cfg.FrequencyTypeID(n.FreqType)
	if !ok {
		domain.Violate("FrequencyCap", "unknown frequency cap type")
	}

	for _, cap := range capsVal.FrequencyCapList {
		if cap.Type != n.FreqType || cap.ID != typeID {
			continue
		}
		if cap.Namespace.VarID != n.FreqNamespace.VarID || cap.Namespace.StrID != n.FreqNamespace.StrID {
			continue
		}

		if n.FreqLength <= 0 {
			return n.FreqValue > cap.Value
		}
		if !cap.HasTimestamp {
			return true
		}
		if (now - cap.Timestamp/1_000_000) > n.FreqLength {
			return true
		}
		return n.FreqValue > cap.Value
	}
	return true
}

// matchSegment implements segment_within / segment_before: the event's
// segments list is sorted ascending by segment id; ids less than the
// target are skipped, an id equal to the target decides the result, and
// an id greater than the target (or running off the list) means false.
func matchSegment(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	nowVar, ok := cfg.GetIDForAttr(AttrNow)
	if !ok {
		domain.Violate("Segment", `"now" attribute is not registered`)
	}
	nowVal, defined := requireDefined(cfg, ev, nowVar)
	if !defined {
		return false
	}
	assertValueType(nowVal, domain.ValueInt64, "Segment")
	now := nowVal.Int

	segVar, ok := cfg.GetIDForAttr(AttrSegments)
	if !ok {
		domain.Violate("Segment", `"segments_with_timestamp" attribute is not registered`)
	}
	segVal, defined := requireDefined(cfg, ev, segVar)
	if !defined {
		return false
	}
	assertValueType(segVal, domain.ValueSegmentList, "Segment")

	for _, seg := range segVal.SegmentList {
		if seg.ID < n.SegmentID {
			continue
		}
		if seg.ID == n.SegmentID {
			switch n.Op {
			case tree.OpWithin:
				return (now - n.SegmentSeconds) <= seg.Timestamp/1_000_000
			case tree.OpBefore:
				return (now - n.SegmentSeconds) > seg.Timestamp/1_000_000
			default:
				domain.Violate("Segment", "invalid segment operator")
			}
		}
		return false
	}
	return false
}

// matchGeo implements geo_within_radius with the source's exact
// haversine formula and constants.
func matchGeo(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	latVar, ok := cfg.GetIDForAttr(AttrLatitude)
	if !ok {
		domain.Violate("Geo", `"latitude" attribute is not registered`)
	}
	lonVar, ok := cfg.GetIDForAttr(AttrLongitude)
	if !ok {
		domain.Violate("Geo", `"longitude" attribute is not registered`)
	}

	latVal, latDefined := requireDefined(cfg, ev, latVar)
	lonVal, lonDefined := requireDefined(cfg, ev, lonVar)
	if !latDefined || !lonDefined {
		return false
	}
	assertValueType(latVal, domain.ValueFloat64, "Geo")
	assertValueType(lonVal, domain.ValueFloat64, "Geo")

	return geoWithinRadius(n.GeoLat, n.GeoLon, latVal.Float, lonVal.Float, n.GeoRadius)
}

func geoWithinRadius(lat1, lon1, lat2, lon2, distanceKM float64) bool {
	lon1 -= lon2
	lon1 *= toRad
	lat1 *= toRad
	lat2 *= toRad

	dz := math.Sin(lat1) - math.Sin(lat2)
	dx := math.Cos(lon1)*math.Cos(lat1) - math.Cos(lat2)
	dy := math.Sin(lon1) * math.Cos(lat1)

	return (math.Asin(math.Sqrt(dx*dx+dy*dy+dz*dz)/2) * 2 * earthRadiusKM) <= distanceKM
}

func matchString(cfg *domain.Config, ev *domain.Event, n *tree.Node) bool {
	v, ok := requireDefined(cfg, ev, n.AttrVar)
	if !ok {
		return false
	}
	assertValueType(v, domain.ValueString, "String")
	value := v.Str.Literal

	switch n.Op {
	case tree.OpContains:
		return len(value) >= len(n.StringPattern) && strings.Contains(value, n.StringPattern)
	case tree.OpStartsWith:
		return len(value) >= len(n.StringPattern) && strings.HasPrefix(value, n.StringPattern)
	case tree.OpEndsWith:
		return len(value) >= len(n.StringPattern) && strings.HasSuffix(value, n.StringPattern)
	default:
		domain.Violate("String", "invalid string operator")
		return false
	}
}
