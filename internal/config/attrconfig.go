// Package config loads the attribute domain declarations a host feeds
// into domain.Config at startup - the ambient configuration layer
// surrounding the matching core, kept separate from it the same way
// the teacher keeps transport config out of its rule engine package.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/betree/internal/domain"
)

// attrSpecFile is the on-disk shape one entry of the "attributes" list
// takes, matching the field names LoadDomainConfig binds with viper.
type attrSpecFile struct {
	Name           string  `mapstructure:"name"`
	Type           string  `mapstructure:"type"`
	AllowUndefined bool    `mapstructure:"allow_undefined"`
	MinInt         int64   `mapstructure:"min_int"`
	MaxInt         int64   `mapstructure:"max_int"`
	MinFloat       float64 `mapstructure:"min_float"`
	MaxFloat       float64 `mapstructure:"max_float"`
	StringBounded  bool    `mapstructure:"string_bounded"`
	MaxCardinality int     `mapstructure:"max_cardinality"`
}

// LoadDomainConfig loads attribute domain declarations from configPath,
// with precedence environment (BETREE_ prefix) > config file >
// defaults; no command-line flags are bound here.
// An empty configPath skips the file layer and returns whatever
// defaults and environment overrides apply.
func LoadDomainConfig(configPath string) ([]domain.AttrSpec, error) {
	v := viper.New()

	v.SetDefault("attributes", []map[string]any{})

	v.SetEnvPrefix("BETREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("betree: failed to read domain config: %w", err)
		}
	}

	var raw []attrSpecFile
	if err := v.UnmarshalKey("attributes", &raw); err != nil {
		return nil, fmt.Errorf("betree: failed to parse attribute declarations: %w", err)
	}

	specs := make([]domain.AttrSpec, 0, len(raw))
	for _, r := range raw {
		spec, err := toAttrSpec(r)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func toAttrSpec(r attrSpecFile) (domain.AttrSpec, error) {
	valueType, err := parseValueType(r.Type)
	if err != nil {
		return domain.AttrSpec{}, err
	}
	return domain.AttrSpec{
		Name:           r.Name,
		ValueType:      valueType,
		AllowUndefined: r.AllowUndefined,
		MinInt:         r.MinInt,
		MaxInt:         r.MaxInt,
		MinFloat:       r.MinFloat,
		MaxFloat:       r.MaxFloat,
		StringBounded:  r.StringBounded,
		MaxCardinality: r.MaxCardinality,
	}, nil
}

func parseValueType(s string) (domain.ValueType, error) {
	switch s {
	case "bool":
		return domain.ValueBool, nil
	case "int", "int64":
		return domain.ValueInt64, nil
	case "float", "float64":
		return domain.ValueFloat64, nil
	case "string":
		return domain.ValueString, nil
	case "int_list":
		return domain.ValueIntList, nil
	case "string_list":
		return domain.ValueStringList, nil
	case "segment_list":
		return domain.ValueSegmentList, nil
	case "frequency_cap_list":
		return domain.ValueFrequencyCapList, nil
	default:
		return domain.ValueUnspecified, fmt.Errorf("betree: unknown attribute type %q", s)
	}
}

// validateSpecs rejects duplicate names and bounded-string attributes
// with a non-positive cardinality, mirroring the bound checks the
// teacher's validateConfig runs against its own config shape.
func validateSpecs(specs []domain.AttrSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return fmt.Errorf("betree: attribute %q declared more than once", s.Name)
		}
		seen[s.Name] = true

		if s.StringBounded && s.MaxCardinality <= 0 {
			return fmt.Errorf("betree: attribute %q is string_bounded but max_cardinality must be positive, got %d", s.Name, s.MaxCardinality)
		}
		if s.ValueType == domain.ValueInt64 && s.MinInt > s.MaxInt {
			return fmt.Errorf("betree: attribute %q has min_int %d greater than max_int %d", s.Name, s.MinInt, s.MaxInt)
		}
		if s.ValueType == domain.ValueFloat64 && s.MinFloat > s.MaxFloat {
			return fmt.Errorf("betree: attribute %q has min_float %g greater than max_float %g", s.Name, s.MinFloat, s.MaxFloat)
		}
	}
	return nil
}

// BuildConfig constructs a domain.Config and registers every spec in
// order, so AddAttrDomain's assigned VarIDs are deterministic given a
// fixed input file.
func BuildConfig(specs []domain.AttrSpec, opts ...domain.ConfigOption) *domain.Config {
	cfg := domain.NewConfig(opts...)
	for _, s := range specs {
		cfg.AddAttrDomain(s)
	}
	return cfg
}
