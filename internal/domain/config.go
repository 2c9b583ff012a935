// Package domain implements the Interner & Config component described
// in the engine's specification: the process-wide registry mapping
// attribute names to variable ids, per-attribute string interning, and
// attribute domain bounds. It also carries the value model (Value,
// StringValue, Segment, FrequencyCap) and the Event shape matchers read.
//
// Config is single-writer during a setup phase and multi-reader during
// evaluation; the core provides no locking of its own - the caller must
// finish compilation before any matcher invocation runs concurrently
// with it (see internal/matcher).
package domain

import (
	"fmt"
	"log/slog"
)

// FrequencyTypeIDs is the default frequency-cap type-to-object-id
// mapping the matcher's WITHIN_CAP semantics use. The source hard-codes
// this as a placeholder; the WithFrequencyTypeIDs option lets a host override
// it explicitly without changing default behavior silently.
var FrequencyTypeIDs = map[string]int64{
	"advertiser": 20,
	"campaign":   30,
	"flight":     10,
	"product":    40,
}

// Config is the Interner & attribute-domain registry. It is append-only
// after initialization: attribute and string ids are never reused.
type Config struct {
	attrByName map[string]VarID
	attrs      []*AttrDomain // indexed by VarID

	strTables []map[string]StrID // indexed by VarID: literal -> StrID
	strList   [][]string         // indexed by VarID then StrID: StrID -> literal

	freqTypeIDs map[string]int64

	log *Logger
}

// ConfigOption configures a Config at construction time.
type ConfigOption func(*Config)

// WithLogger attaches a structured logger used for setup-phase
// diagnostics (attribute registration, compiler-pass completion,
// validation rejections). The matcher's hot path never logs - see
// internal/matcher.
func WithLogger(l *slog.Logger) ConfigOption {
	return func(c *Config) { c.log = &Logger{Logger: l} }
}

// WithFrequencyTypeIDs overrides the frequency-cap type-to-object-id
// mapping the matcher's WITHIN_CAP semantics use. Defaults to
// FrequencyTypeIDs, so omitting this option preserves the spec's fixed
// mapping exactly.
func WithFrequencyTypeIDs(ids map[string]int64) ConfigOption {
	return func(c *Config) {
		m := make(map[string]int64, len(ids))
		for k, v := range ids {
			m[k] = v
		}
		c.freqTypeIDs = m
	}
}

// NewConfig creates an empty Config ready for attribute registration.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		attrByName:  make(map[string]VarID),
		freqTypeIDs: FrequencyTypeIDs,
		log:         NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

// FrequencyTypeID resolves a frequency cap type name to its object id
// per the (possibly overridden) frequency type mapping.
func (c *Config) FrequencyTypeID(typ string) (int64, bool) {
	id, ok := c.freqTypeIDs[typ]
	return id, ok
}

// AddAttrDomain registers an attribute with an explicit domain, as the
// host does during setup before any parsing happens. Idempotent: a
// second call with the same name returns the existing VarID as long as
// the value type matches; a conflicting value type is a contract
// violation, mirroring "attribute domain mismatches with observed value
// types abort" in the error taxonomy.
func (c *Config) AddAttrDomain(spec AttrSpec) VarID {
	if existing, ok := c.attrByName[spec.Name]; ok {
		dom := c.attrs[existing]
		if dom.ValueType != spec.ValueType {
			Violate("AddAttrDomain", fmt.Sprintf("attribute %q already registered as %s, cannot re-register as %s", spec.Name, dom.ValueType, spec.ValueType))
		}
		return existing
	}

	id := VarID(len(c.attrs))
	dom := &AttrDomain{
		Name:           spec.Name,
		VarID:          id,
		ValueType:      spec.ValueType,
		AllowUndefined: spec.AllowUndefined,
		MinInt:         spec.MinInt,
		MaxInt:         spec.MaxInt,
		MinFloat:       spec.MinFloat,
		MaxFloat:       spec.MaxFloat,
		StringBounded:  spec.StringBounded,
		MaxCardinality: spec.MaxCardinality,
	}
	c.attrByName[spec.Name] = id
	c.attrs = append(c.attrs, dom)
	c.strTables = append(c.strTables, make(map[string]StrID))
	c.strList = append(c.strList, nil)

	c.log.LogAttrRegistered(spec.Name, id, spec.ValueType)
	return id
}

// GetOrCreateAttr implements get_id_for_attr: idempotent lookup that
// auto-vivifies an unbounded default domain of valueType on first call
// if the attribute was never registered via AddAttrDomain. A subsequent
// call with a conflicting valueType is a contract violation.
func (c *Config) GetOrCreateAttr(name string, valueType ValueType) VarID {
	if id, ok := c.attrByName[name]; ok {
		dom := c.attrs[id]
		if dom.ValueType != valueType {
			Violate("GetOrCreateAttr", fmt.Sprintf("attribute %q observed as %s, declared as %s", name, valueType, dom.ValueType))
		}
		return id
	}

	dom := defaultBoundFor(valueType)
	dom.Name = name
	return c.AddAttrDomain(AttrSpec{
		Name:      name,
		ValueType: valueType,
		MinInt:    dom.MinInt,
		MaxInt:    dom.MaxInt,
		MinFloat:  dom.MinFloat,
		MaxFloat:  dom.MaxFloat,
	})
}

// VarExists reports whether name has been registered.
func (c *Config) VarExists(name string) bool {
	_, ok := c.attrByName[name]
	return ok
}

// GetIDForAttr returns the VarID for an already-registered attribute.
// Unlike GetOrCreateAttr it never auto-vivifies - callers that require
// the attribute to already exist (the matcher's Special predicates)
// use this and treat a miss as a contract violation.
func (c *Config) GetIDForAttr(name string) (VarID, bool) {
	id, ok := c.attrByName[name]
	return id, ok
}

// AttrDomainByID returns the registered domain for id, or false if id
// is out of range.
func (c *Config) AttrDomainByID(id VarID) (*AttrDomain, bool) {
	if id < 0 || int(id) >= len(c.attrs) {
		return nil, false
	}
	return c.attrs[id], true
}

// AttrDomainByName returns the registered domain for name.
func (c *Config) AttrDomainByName(name string) (*AttrDomain, bool) {
	id, ok := c.attrByName[name]
	if !ok {
		return nil, false
	}
	return c.attrs[id], true
}

// IsVariableAllowUndefined reports whether an attribute may be absent
// from an event without that being a contract violation.
func (c *Config) IsVariableAllowUndefined(id VarID) bool {
	dom, ok := c.AttrDomainByID(id)
	if !ok {
		Violate("IsVariableAllowUndefined", fmt.Sprintf("var_id %d not registered", id))
	}
	return dom.AllowUndefined
}

// GetIDForString implements get_id_for_string: interns literal in the
// per-attribute string table, assigning dense ids starting at zero.
// Idempotent for repeated literals on the same attribute.
func (c *Config) GetIDForString(attrVar VarID, literal string) StrID {
	if attrVar < 0 || int(attrVar) >= len(c.strTables) {
		Violate("GetIDForString", fmt.Sprintf("var_id %d not registered", attrVar))
	}
	table := c.strTables[attrVar]
	if id, ok := table[literal]; ok {
		return id
	}
	id := StrID(len(c.strList[attrVar]))
	table[literal] = id
	c.strList[attrVar] = append(c.strList[attrVar], literal)
	c.log.Debug("interned string", "var_id", attrVar, "str_id", id, "literal", literal)
	return id
}

// StringLiteralFor reverses a (VarID, StrID) pair back to its literal,
// for diagnostics.
func (c *Config) StringLiteralFor(attrVar VarID, str StrID) (string, bool) {
	if attrVar < 0 || int(attrVar) >= len(c.strList) {
		return "", false
	}
	lits := c.strList[attrVar]
	if str < 0 || int(str) >= len(lits) {
		return "", false
	}
	return lits[str], true
}

// HasInternedString reports whether literal has already been interned
// for attrVar, without interning it as a side effect. Used by
// all_bounded_strings_valid's pre-compile capacity check.
func (c *Config) HasInternedString(attrVar VarID, literal string) bool {
	if attrVar < 0 || int(attrVar) >= len(c.strTables) {
		return false
	}
	_, ok := c.strTables[attrVar][literal]
	return ok
}

// StringCount returns how many distinct literals have been interned
// for attrVar so far, used by AllBoundedStringsValid's capacity check.
func (c *Config) StringCount(attrVar VarID) int {
	if attrVar < 0 || int(attrVar) >= len(c.strList) {
		return 0
	}
	return len(c.strList[attrVar])
}

// Logger returns the config's diagnostic logger, used by the compiler
// passes to record compilation and predicate-dedup events.
func (c *Config) Logger() *Logger { return c.log }
