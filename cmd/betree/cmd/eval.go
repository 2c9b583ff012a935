package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/solatis/betree/internal/compiler"
	"github.com/solatis/betree/internal/config"
	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/matcher"
	"github.com/solatis/betree/internal/predmap"
	"github.com/solatis/betree/internal/tree"
)

var (
	evalAttr     string
	evalOp       string
	evalValue    string
	evalEventFile string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "compile and match one ad-hoc comparison expression against one event",
	Long: `eval builds a single numeric-compare or equality predicate over one
declared attribute and matches it against an event loaded from a JSON
file, for local debugging of a domain config without writing a Go
program against the package API.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalAttr, "attr", "", "attribute name (must be declared in --config)")
	evalCmd.Flags().StringVar(&evalOp, "op", "", "comparison: lt, le, gt, ge, eq, ne")
	evalCmd.Flags().StringVar(&evalValue, "value", "", "literal to compare against")
	evalCmd.Flags().StringVar(&evalEventFile, "event", "", "event JSON file: {\"attr_name\": value, ...}")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalAttr == "" || evalOp == "" || evalEventFile == "" {
		return fmt.Errorf("betree: --attr, --op and --event are required")
	}
	if configFile == "" {
		return fmt.Errorf("betree: --config is required")
	}

	specs, err := config.LoadDomainConfig(configFile)
	if err != nil {
		return err
	}
	cfg := config.BuildConfig(specs, domain.WithLogger(newLogger()))

	varID, ok := cfg.GetIDForAttr(evalAttr)
	if !ok {
		return fmt.Errorf("betree: attribute %q is not declared in %s", evalAttr, configFile)
	}
	attr, _ := cfg.AttrDomainByID(varID)

	node, err := buildNode(attr, varID, evalOp, evalValue)
	if err != nil {
		return err
	}

	pm := predmap.New()
	if err := compiler.Compile(cfg, pm, node); err != nil {
		return fmt.Errorf("betree: compile failed: %w", err)
	}

	ev, err := loadEvent(cfg, evalEventFile)
	if err != nil {
		return err
	}

	memo := matcher.NewMemoize()
	report := matcher.NewReport()
	result := matcher.MatchNode(cfg, ev, node, memo, report)

	fmt.Printf("match: %v\n", result)
	return nil
}

func buildNode(attr *domain.AttrDomain, varID domain.VarID, op, rawValue string) (*tree.Node, error) {
	treeOp, isEquality, err := parseOp(op)
	if err != nil {
		return nil, err
	}

	var value domain.Value
	switch attr.ValueType {
	case domain.ValueInt64:
		n, err := strconv.ParseInt(rawValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("betree: --value %q is not a valid int: %w", rawValue, err)
		}
		value = domain.IntValue(n)
	case domain.ValueFloat64:
		f, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return nil, fmt.Errorf("betree: --value %q is not a valid float: %w", rawValue, err)
		}
		value = domain.FloatValue(f)
	case domain.ValueString:
		if !isEquality {
			return nil, fmt.Errorf("betree: attribute %q is a string, only eq/ne are supported by eval", attr.Name)
		}
		value = domain.StringLiteral(rawValue)
	default:
		return nil, fmt.Errorf("betree: eval does not support attribute type %s", attr.ValueType)
	}

	if isEquality {
		return tree.Equality(treeOp, varID, value), nil
	}
	return tree.NumericCompare(treeOp, varID, value), nil
}

func parseOp(op string) (tree.Op, bool, error) {
	switch op {
	case "lt":
		return tree.OpLT, false, nil
	case "le":
		return tree.OpLE, false, nil
	case "gt":
		return tree.OpGT, false, nil
	case "ge":
		return tree.OpGE, false, nil
	case "eq":
		return tree.OpEQ, true, nil
	case "ne":
		return tree.OpNE, true, nil
	default:
		return tree.OpUnspecified, false, fmt.Errorf("betree: unknown --op %q, want one of lt, le, gt, ge, eq, ne", op)
	}
}

func loadEvent(cfg *domain.Config, path string) (*domain.Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("betree: failed to read event file: %w", err)
	}

	var fields map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("betree: failed to parse event JSON: %w", err)
	}

	ev := domain.NewEvent()
	for name, raw := range fields {
		varID, ok := cfg.GetIDForAttr(name)
		if !ok {
			continue
		}
		attr, _ := cfg.AttrDomainByID(varID)

		var value domain.Value
		switch attr.ValueType {
		case domain.ValueInt64:
			num, ok := raw.(json.Number)
			if !ok {
				return nil, fmt.Errorf("betree: event field %q is not a number", name)
			}
			n, err := num.Int64()
			if err != nil {
				return nil, fmt.Errorf("betree: event field %q is not an int: %w", name, err)
			}
			value = domain.IntValue(n)
		case domain.ValueFloat64:
			num, ok := raw.(json.Number)
			if !ok {
				return nil, fmt.Errorf("betree: event field %q is not a number", name)
			}
			f, err := num.Float64()
			if err != nil {
				return nil, fmt.Errorf("betree: event field %q is not a float: %w", name, err)
			}
			value = domain.FloatValue(f)
		case domain.ValueBool:
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("betree: event field %q is not a bool", name)
			}
			value = domain.BoolValue(b)
		case domain.ValueString:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("betree: event field %q is not a string", name)
			}
			value = domain.Value{Tag: domain.ValueString, Str: domain.StringValue{
				VarID:   varID,
				StrID:   cfg.GetIDForString(varID, s),
				Literal: s,
			}}
		default:
			continue
		}

		ev.Predicates = append(ev.Predicates, domain.EventPredicate{VarID: varID, Value: value})
	}
	return ev, nil
}
