package tree

import (
	"testing"

	"github.com/solatis/betree/internal/domain"
)

func TestAllVariablesInConfig(t *testing.T) {
	cfg := domain.NewConfig()
	ageVar := cfg.GetOrCreateAttr("age", domain.ValueInt64)

	ok := And(
		NumericCompare(OpGE, ageVar, domain.IntValue(18)),
		NumericCompare(OpLE, domain.VarID(99), domain.IntValue(65)),
	)
	if AllVariablesInConfig(cfg, ok) {
		t.Errorf("AllVariablesInConfig = true, want false (var 99 unregistered)")
	}

	valid := NumericCompare(OpGE, ageVar, domain.IntValue(18))
	if !AllVariablesInConfig(cfg, valid) {
		t.Errorf("AllVariablesInConfig = false, want true")
	}
}

func TestAllBoundedStringsValid_RejectsOverCapacity(t *testing.T) {
	cfg := domain.NewConfig()
	cfg.AddAttrDomain(domain.AttrSpec{Name: "country", ValueType: domain.ValueString, StringBounded: true, MaxCardinality: 2})
	countryVar, _ := cfg.GetIDForAttr("country")

	first := Equality(OpEQ, countryVar, domain.StringLiteral("US"))
	if !AllBoundedStringsValid(cfg, first) {
		t.Errorf("AllBoundedStringsValid = false, want true (capacity available)")
	}
	cfg.GetIDForString(countryVar, "US")

	second := Equality(OpEQ, countryVar, domain.StringLiteral("CA"))
	if AllBoundedStringsValid(cfg, second) {
		t.Errorf("AllBoundedStringsValid = true, want false (capacity exhausted)")
	}

	repeat := Equality(OpEQ, countryVar, domain.StringLiteral("US"))
	if !AllBoundedStringsValid(cfg, repeat) {
		t.Errorf("AllBoundedStringsValid = false, want true (literal already interned)")
	}
}

func TestAllBoundedStringsValid_IgnoresUnboundedAttributes(t *testing.T) {
	cfg := domain.NewConfig()
	userVar := cfg.GetOrCreateAttr("user_id", domain.ValueString)

	n := Equality(OpEQ, userVar, domain.StringLiteral("anything"))
	if !AllBoundedStringsValid(cfg, n) {
		t.Errorf("AllBoundedStringsValid = false, want true (unbounded attribute)")
	}
}
