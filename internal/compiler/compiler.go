// Package compiler implements the three compiler passes run over a
// freshly parsed tree before it enters the enclosing index:
// assign_variable_id, assign_str_id and assign_pred_id. All three are
// pure aside from appending to the Config/Interner and the predicate
// map, and are safe to re-run idempotently.
//
// Building the tree from source text is explicitly out of scope (the
// parser is an external collaborator); callers construct tree.Node
// trees directly via internal/tree's constructors, resolving attribute
// names to domain.VarID through Config.GetOrCreateAttr before
// constructing a node. assign_variable_id therefore validates that
// every attribute reference a constructed tree carries really is
// registered with cfg, rather than rewriting textual names - the same
// contract the pass has after the parser has already run name
// resolution in the source.
package compiler

import (
	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/predmap"
	"github.com/solatis/betree/internal/tree"
)

// AssignVariableID implements assign_variable_id. It recurses through
// every node and asserts that each attr_var it references is a
// registered VarID in cfg (a contract violation otherwise, matching
// "unknown attribute at lookup is fatal for required call sites"). For
// Set expressions only the variable side is checked. Idempotent: a
// second call re-validates the same references.
func AssignVariableID(cfg *domain.Config, root *tree.Node) {
	tree.Walk(root, func(n *tree.Node) {
		switch n.Tag {
		case tree.TagNumericCompare, tree.TagEquality, tree.TagList, tree.TagString:
			requireVar(cfg, n.AttrVar)
		case tree.TagBool:
			if n.Op == tree.OpVariable {
				requireVar(cfg, n.AttrVar)
			}
		case tree.TagSet:
			if n.SetLeft.IsVariable {
				requireVar(cfg, n.SetLeft.VarID)
			}
			if n.SetRight.IsVariable {
				requireVar(cfg, n.SetRight.VarID)
			}
		}
	})
}

func requireVar(cfg *domain.Config, id domain.VarID) {
	if _, ok := cfg.AttrDomainByID(id); !ok {
		domain.Violate("AssignVariableID", "attribute referenced by expression is not registered with config")
	}
}

// AssignStrID implements assign_str_id: for every string literal
// reachable in root, interns it under the owning attribute and stamps
// the value's VarID/StrID fields. The owning attribute is the node's
// AttrVar for Equality/List nodes, the variable side's VarID for Set
// nodes, and the frequency_caps attribute's VarID for a FrequencyCap
// namespace - cfg must already have a "frequency_caps" attribute
// registered for namespaces to intern against, mirroring the source's
// fixed attribute name. String (contains/starts_with/ends_with) nodes
// keep their raw pattern and are not interned. Idempotent:
// literals already carrying a valid StrID are left untouched.
func AssignStrID(cfg *domain.Config, root *tree.Node) {
	tree.Walk(root, func(n *tree.Node) {
		switch n.Tag {
		case tree.TagEquality, tree.TagList:
			internValue(cfg, n.AttrVar, &n.Value)
		case tree.TagSet:
			internSetOperand(cfg, n)
		case tree.TagFrequencyCap:
			if n.FreqNamespace.StrID == domain.InvalidStrID {
				fcVar, ok := cfg.GetIDForAttr("frequency_caps")
				if !ok {
					domain.Violate("AssignStrID", `"frequency_caps" attribute must be registered before interning a namespace`)
				}
				n.FreqNamespace.VarID = fcVar
				n.FreqNamespace.StrID = cfg.GetIDForString(fcVar, n.FreqNamespace.Literal)
			}
		}
	})
}

// internSetOperand interns whichever side of a Set node is not the
// variable, under the variable side's attribute.
func internSetOperand(cfg *domain.Config, n *tree.Node) {
	var varID domain.VarID
	var lit *domain.Value
	if n.SetLeft.IsVariable && !n.SetRight.IsVariable {
		varID, lit = n.SetLeft.VarID, &n.SetRight.Value
	} else if n.SetRight.IsVariable && !n.SetLeft.IsVariable {
		varID, lit = n.SetRight.VarID, &n.SetLeft.Value
	} else {
		domain.Violate("AssignStrID", "set expression must have exactly one variable side")
		return
	}
	internValue(cfg, varID, lit)
}

func internValue(cfg *domain.Config, varID domain.VarID, v *domain.Value) {
	switch v.Tag {
	case domain.ValueString:
		if v.Str.StrID == domain.InvalidStrID {
			v.Str.VarID = varID
			v.Str.StrID = cfg.GetIDForString(varID, v.Str.Literal)
		}
	case domain.ValueStringList:
		for i := range v.StringList {
			if v.StringList[i].StrID == domain.InvalidStrID {
				v.StringList[i].VarID = varID
				v.StringList[i].StrID = cfg.GetIDForString(varID, v.StringList[i].Literal)
			}
		}
	}
}

// AssignPredID implements assign_pred_id: a post-order walk assigning
// every node (leaves and Bool combinators alike) a dense predicate id
// via pm, so Memoize can cache sub-expression hits in addition to
// top-level ones. Idempotent: re-running against the same pm and an
// unchanged tree reassigns the same ids, since structural content
// (not id) is the dedup key. Every node that folds onto an
// already-assigned id (rather than minting a fresh one) is logged
// through cfg's diagnostic logger.
func AssignPredID(cfg *domain.Config, pm *predmap.Map, root *tree.Node) {
	if root == nil {
		return
	}
	if root.Tag == tree.TagBool {
		switch root.Op {
		case tree.OpAnd, tree.OpOr:
			AssignPredID(cfg, pm, root.LHS)
			AssignPredID(cfg, pm, root.RHS)
		case tree.OpNot:
			AssignPredID(cfg, pm, root.LHS)
		}
	}
	before := pm.Len()
	id := pm.AssignPredID(root)
	if pm.Len() == before {
		cfg.Logger().LogPredicateDedup(id)
	}
}

// AllVariablesInConfig re-exports tree.AllVariablesInConfig as part of
// the compiler's public surface (the source groups it with the other
// compiler-pass entry points).
func AllVariablesInConfig(cfg *domain.Config, root *tree.Node) bool {
	return tree.AllVariablesInConfig(cfg, root)
}

// AllBoundedStringsValid re-exports tree.AllBoundedStringsValid.
func AllBoundedStringsValid(cfg *domain.Config, root *tree.Node) bool {
	return tree.AllBoundedStringsValid(cfg, root)
}

// Compile runs all three passes in order, validating the tree before
// any interning: it returns ErrEmptyExpression for a nil root and
// ErrStringCapacityExceeded when AllBoundedStringsValid fails, rather
// than compiling an expression that should be rejected before it ever
// reaches the matcher. An attribute not registered with cfg panics in
// AssignVariableID, which runs before the AllVariablesInConfig check.
// The outcome, including a rejection, is logged through cfg's
// diagnostic logger.
func Compile(cfg *domain.Config, pm *predmap.Map, root *tree.Node) error {
	if root == nil {
		cfg.Logger().LogCompile(domain.InvalidPredID, 0, pm.Len(), domain.ErrEmptyExpression)
		return domain.ErrEmptyExpression
	}
	AssignVariableID(cfg, root)
	if !AllVariablesInConfig(cfg, root) {
		cfg.Logger().LogCompile(domain.InvalidPredID, nodeCount(root), pm.Len(), domain.ErrUnknownAttribute)
		return domain.ErrUnknownAttribute
	}
	if !AllBoundedStringsValid(cfg, root) {
		cfg.Logger().LogCompile(domain.InvalidPredID, nodeCount(root), pm.Len(), domain.ErrStringCapacityExceeded)
		return domain.ErrStringCapacityExceeded
	}
	AssignStrID(cfg, root)
	AssignPredID(cfg, pm, root)
	cfg.Logger().LogCompile(root.ID, nodeCount(root), pm.Len(), nil)
	return nil
}

// nodeCount counts every node Walk visits, for LogCompile's diagnostics.
func nodeCount(root *tree.Node) int {
	n := 0
	tree.Walk(root, func(*tree.Node) { n++ })
	return n
}
