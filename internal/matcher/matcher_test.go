package matcher

import (
	"testing"

	"github.com/solatis/betree/internal/compiler"
	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/predmap"
	"github.com/solatis/betree/internal/tree"
)

func mustCompile(t *testing.T, cfg *domain.Config, pm *predmap.Map, n *tree.Node) *tree.Node {
	t.Helper()
	if err := compiler.Compile(cfg, pm, n); err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	return n
}

func TestMatchNode_NumericCompare(t *testing.T) {
	tests := []struct {
		name string
		op   tree.Op
		k    int64
		have int64
		want bool
	}{
		{"lt_true", tree.OpLT, 10, 5, true},
		{"lt_false", tree.OpLT, 10, 10, false},
		{"le_true", tree.OpLE, 10, 10, true},
		{"gt_true", tree.OpGT, 10, 11, true},
		{"ge_true", tree.OpGE, 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.NewConfig()
			varID := cfg.GetOrCreateAttr("age", domain.ValueInt64)
			pm := predmap.New()
			node := mustCompile(t, cfg, pm, tree.NumericCompare(tt.op, varID, domain.IntValue(tt.k)))

			ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.IntValue(tt.have)})
			got := MatchNode(cfg, ev, node, nil, nil)
			if got != tt.want {
				t.Errorf("MatchNode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchNode_NumericCompareFloatHasNoEpsilon(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("price", domain.ValueFloat64)
	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.NumericCompare(tree.OpLT, varID, domain.FloatValue(10.0)))

	ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.FloatValue(10.0 - domain.FloatEpsilon/2)})
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true (strictly less, no epsilon widening for raw comparisons)")
	}
}

func TestMatchNode_EqualityUsesFixedEpsilonForFloats(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("price", domain.ValueFloat64)
	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.Equality(tree.OpEQ, varID, domain.FloatValue(10.0)))

	ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.FloatValue(10.0 + domain.FloatEpsilon/2)})
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true (within fixed epsilon)")
	}
}

func TestMatchNode_EqualityString(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("country", domain.ValueString)
	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.Equality(tree.OpEQ, varID, domain.StringLiteral("US")))

	litID := cfg.GetIDForString(varID, "US")
	ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.Value{Tag: domain.ValueString, Str: domain.StringValue{VarID: varID, StrID: litID}}})
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true")
	}
}

func TestMatchNode_BoolANDShortCircuits(t *testing.T) {
	cfg := domain.NewConfig()
	a := cfg.GetOrCreateAttr("a", domain.ValueInt64)
	b := cfg.GetOrCreateAttr("b", domain.ValueInt64)
	pm := predmap.New()

	node := mustCompile(t, cfg, pm, tree.And(
		tree.NumericCompare(tree.OpGE, a, domain.IntValue(10)),
		tree.NumericCompare(tree.OpGE, b, domain.IntValue(10)),
	))

	// b is absent but allow_undefined is false; if AND did not short-circuit
	// on the false LHS, evaluating RHS would panic via a contract violation.
	ev := domain.NewEvent(domain.EventPredicate{VarID: a, Value: domain.IntValue(1)})
	if MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = true, want false")
	}
}

func TestMatchNode_BoolORShortCircuits(t *testing.T) {
	cfg := domain.NewConfig()
	a := cfg.GetOrCreateAttr("a", domain.ValueInt64)
	b := cfg.GetOrCreateAttr("b", domain.ValueInt64)
	pm := predmap.New()

	node := mustCompile(t, cfg, pm, tree.Or(
		tree.NumericCompare(tree.OpGE, a, domain.IntValue(10)),
		tree.NumericCompare(tree.OpGE, b, domain.IntValue(10)),
	))

	ev := domain.NewEvent(domain.EventPredicate{VarID: a, Value: domain.IntValue(100)})
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true")
	}
}

func TestMatchNode_MemoizeHitsOnRepeatedEvaluation(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("age", domain.ValueInt64)
	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.NumericCompare(tree.OpGE, varID, domain.IntValue(10)))

	ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.IntValue(20)})
	memo := NewMemoize()
	report := NewReport()

	first := MatchNode(cfg, ev, node, memo, report)
	second := MatchNode(cfg, ev, node, memo, report)

	if !first || !second {
		t.Fatalf("MatchNode() = (%v, %v), want (true, true)", first, second)
	}
	if report.ExpressionsMemoized != 1 {
		t.Errorf("report.ExpressionsMemoized = %d, want 1", report.ExpressionsMemoized)
	}
}

func TestMatchNode_SetIn(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("tier", domain.ValueInt64)
	pm := predmap.New()

	node := mustCompile(t, cfg, pm, tree.Set(tree.OpIn,
		tree.SetOperand{IsVariable: true, VarID: varID},
		tree.SetOperand{Value: domain.IntListValue([]int64{1, 2, 3})},
	))

	in := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.IntValue(2)})
	out := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.IntValue(9)})

	if !MatchNode(cfg, in, node, nil, nil) {
		t.Errorf("MatchNode(2 in [1,2,3]) = false, want true")
	}
	if MatchNode(cfg, out, node, nil, nil) {
		t.Errorf("MatchNode(9 in [1,2,3]) = true, want false")
	}
}

func TestMatchNode_ListOperators(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("tags", domain.ValueIntList)

	tests := []struct {
		name string
		op   tree.Op
		have []int64
		want []int64
		ok   bool
	}{
		{"one_of_true", tree.OpOneOf, []int64{1, 2}, []int64{2, 3}, true},
		{"one_of_false", tree.OpOneOf, []int64{1}, []int64{2, 3}, false},
		{"none_of_true", tree.OpNoneOf, []int64{1}, []int64{2, 3}, true},
		{"none_of_false", tree.OpNoneOf, []int64{1, 2}, []int64{2, 3}, false},
		{"all_of_true", tree.OpAllOf, []int64{1, 2, 3}, []int64{2, 3}, true},
		{"all_of_false", tree.OpAllOf, []int64{1, 2}, []int64{2, 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := predmap.New()
			node := mustCompile(t, cfg, pm, tree.List(tt.op, varID, domain.IntListValue(tt.want)))
			ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.IntListValue(tt.have)})
			if got := MatchNode(cfg, ev, node, nil, nil); got != tt.ok {
				t.Errorf("MatchNode() = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestMatchNode_FrequencyCapNoPriorImpressionMatches(t *testing.T) {
	cfg := domain.NewConfig()
	nowVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrNow, ValueType: domain.ValueInt64})
	capsVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrFrequencyCaps, ValueType: domain.ValueFrequencyCapList})

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.FrequencyCap("advertiser", domain.StringValue{VarID: domain.InvalidVarID, StrID: domain.InvalidStrID, Literal: "camp-1"}, 3, 3600))

	ev := domain.NewEvent(
		domain.EventPredicate{VarID: nowVar, Value: domain.IntValue(1000)},
		domain.EventPredicate{VarID: capsVar, Value: domain.FrequencyCapListValue(nil)},
	)
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true (no cap recorded yet)")
	}
}

func TestMatchNode_FrequencyCapWithinBudget(t *testing.T) {
	cfg := domain.NewConfig()
	nowVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrNow, ValueType: domain.ValueInt64})
	capsVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrFrequencyCaps, ValueType: domain.ValueFrequencyCapList})

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.FrequencyCap("advertiser", domain.StringValue{VarID: domain.InvalidVarID, StrID: domain.InvalidStrID, Literal: "camp-1"}, 3, 3600))

	ev := domain.NewEvent(
		domain.EventPredicate{VarID: nowVar, Value: domain.IntValue(1000)},
		domain.EventPredicate{VarID: capsVar, Value: domain.FrequencyCapListValue([]domain.FrequencyCap{
			{Type: "advertiser", ID: 20, Namespace: node.FreqNamespace, Value: 2, Timestamp: 500_000_000, HasTimestamp: true},
		})},
	)
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true (impression count 2 < requested budget 3)")
	}
}

func TestMatchNode_FrequencyCapAtBudgetFails(t *testing.T) {
	cfg := domain.NewConfig()
	nowVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrNow, ValueType: domain.ValueInt64})
	capsVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrFrequencyCaps, ValueType: domain.ValueFrequencyCapList})

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.FrequencyCap("advertiser", domain.StringValue{VarID: domain.InvalidVarID, StrID: domain.InvalidStrID, Literal: "camp-1"}, 3, 3600))

	ev := domain.NewEvent(
		domain.EventPredicate{VarID: nowVar, Value: domain.IntValue(1000)},
		domain.EventPredicate{VarID: capsVar, Value: domain.FrequencyCapListValue([]domain.FrequencyCap{
			{Type: "advertiser", ID: 20, Namespace: node.FreqNamespace, Value: 3, Timestamp: 500_000_000, HasTimestamp: true},
		})},
	)
	if MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = true, want false (impression count reached requested budget)")
	}
}

func TestMatchNode_SegmentWithin(t *testing.T) {
	cfg := domain.NewConfig()
	nowVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrNow, ValueType: domain.ValueInt64})
	segVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrSegments, ValueType: domain.ValueSegmentList})

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.Segment(tree.OpWithin, 5, 3600))

	ev := domain.NewEvent(
		domain.EventPredicate{VarID: nowVar, Value: domain.IntValue(1000)},
		domain.EventPredicate{VarID: segVar, Value: domain.SegmentListValue([]domain.Segment{{ID: 5, Timestamp: 500_000_000}})},
	)
	if !MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = false, want true")
	}
}

func TestMatchNode_SegmentNotPresentFails(t *testing.T) {
	cfg := domain.NewConfig()
	nowVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrNow, ValueType: domain.ValueInt64})
	segVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrSegments, ValueType: domain.ValueSegmentList})

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.Segment(tree.OpWithin, 7, 3600))

	ev := domain.NewEvent(
		domain.EventPredicate{VarID: nowVar, Value: domain.IntValue(1000)},
		domain.EventPredicate{VarID: segVar, Value: domain.SegmentListValue([]domain.Segment{{ID: 5, Timestamp: 500_000_000}})},
	)
	if MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = true, want false (segment 7 not present, list only has 5 and is sorted past it)")
	}
}

func TestMatchNode_GeoWithinRadius(t *testing.T) {
	cfg := domain.NewConfig()
	latVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrLatitude, ValueType: domain.ValueFloat64, MinFloat: -90, MaxFloat: 90})
	lonVar := cfg.AddAttrDomain(domain.AttrSpec{Name: AttrLongitude, ValueType: domain.ValueFloat64, MinFloat: -180, MaxFloat: 180})

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.Geo(40.7128, -74.0060, 10))

	near := domain.NewEvent(
		domain.EventPredicate{VarID: latVar, Value: domain.FloatValue(40.7128)},
		domain.EventPredicate{VarID: lonVar, Value: domain.FloatValue(-74.0060)},
	)
	far := domain.NewEvent(
		domain.EventPredicate{VarID: latVar, Value: domain.FloatValue(34.0522)},
		domain.EventPredicate{VarID: lonVar, Value: domain.FloatValue(-118.2437)},
	)

	if !MatchNode(cfg, near, node, nil, nil) {
		t.Errorf("MatchNode(near) = false, want true")
	}
	if MatchNode(cfg, far, node, nil, nil) {
		t.Errorf("MatchNode(far) = true, want false (New York to Los Angeles exceeds 10km)")
	}
}

func TestMatchNode_String(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("url", domain.ValueString)

	tests := []struct {
		name    string
		op      tree.Op
		pattern string
		value   string
		want    bool
	}{
		{"contains_true", tree.OpContains, "foo", "a-foo-bar", true},
		{"contains_false", tree.OpContains, "baz", "a-foo-bar", false},
		{"starts_with_true", tree.OpStartsWith, "a-foo", "a-foo-bar", true},
		{"starts_with_false", tree.OpStartsWith, "bar", "a-foo-bar", false},
		{"ends_with_true", tree.OpEndsWith, "bar", "a-foo-bar", true},
		{"ends_with_false", tree.OpEndsWith, "foo", "a-foo-bar", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := tree.String(tt.op, varID, tt.pattern)
			ev := domain.NewEvent(domain.EventPredicate{VarID: varID, Value: domain.Value{Tag: domain.ValueString, Str: domain.StringValue{Literal: tt.value}}})
			if got := MatchNode(cfg, ev, node, nil, nil); got != tt.want {
				t.Errorf("MatchNode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchNode_UndefinedAllowedAttributeIsFalse(t *testing.T) {
	cfg := domain.NewConfig()
	cfg.AddAttrDomain(domain.AttrSpec{Name: "age", ValueType: domain.ValueInt64, AllowUndefined: true, MinInt: 0, MaxInt: 120})
	varID, _ := cfg.GetIDForAttr("age")

	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.NumericCompare(tree.OpGE, varID, domain.IntValue(18)))

	ev := domain.NewEvent()
	if MatchNode(cfg, ev, node, nil, nil) {
		t.Errorf("MatchNode() = true, want false (attribute absent and allow_undefined)")
	}

	not := tree.Not(tree.NumericCompare(tree.OpGE, varID, domain.IntValue(18)))
	compiler.AssignPredID(cfg, pm, not)
	if MatchNode(cfg, ev, not, nil, nil) {
		t.Errorf("MatchNode(not(undefined)) = true, want false (undefined propagates as false even under NOT)")
	}
}

func TestMatchNode_MissingRequiredAttributePanics(t *testing.T) {
	cfg := domain.NewConfig()
	varID := cfg.GetOrCreateAttr("age", domain.ValueInt64)
	pm := predmap.New()
	node := mustCompile(t, cfg, pm, tree.NumericCompare(tree.OpGE, varID, domain.IntValue(18)))

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("MatchNode did not panic on a missing, non-allow-undefined attribute")
		}
	}()
	MatchNode(cfg, domain.NewEvent(), node, nil, nil)
}
