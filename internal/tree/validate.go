package tree

import "github.com/solatis/betree/internal/domain"

// AllVariablesInConfig implements all_variables_in_config: every
// attribute referenced anywhere in n must already be registered with
// cfg. Returns false (a recoverable validation failure) on the first
// miss rather than panicking, since an unregistered attribute here is
// caller input, not a programming bug.
func AllVariablesInConfig(cfg *domain.Config, n *Node) bool {
	ok := true
	walkAll(n, func(m *Node) {
		if !ok {
			return
		}
		for _, v := range referencedVars(m) {
			if _, exists := cfg.AttrDomainByID(v); !exists {
				ok = false
				return
			}
		}
	})
	return ok
}

// AllBoundedStringsValid implements all_bounded_strings_valid: for
// every EQ-to-string predicate, if the attribute's string domain is
// bounded, either the literal is already interned or the interner has
// remaining capacity (count+1 < max_cardinality).
func AllBoundedStringsValid(cfg *domain.Config, n *Node) bool {
	ok := true
	walkAll(n, func(m *Node) {
		if !ok {
			return
		}
		if m.Tag != TagEquality || m.Op != OpEQ || m.Value.Tag != domain.ValueString {
			return
		}
		dom, exists := cfg.AttrDomainByID(m.AttrVar)
		if !exists || !dom.StringBounded {
			return
		}
		if cfg.HasInternedString(m.AttrVar, m.Value.Str.Literal) {
			return
		}
		if cfg.StringCount(m.AttrVar)+1 >= dom.MaxCardinality {
			ok = false
		}
	})
	return ok
}

// walkAll recurses through every node kind, including the non-Bool
// children Walk skips (NumericCompare/Equality/Set/List/Special have no
// children to recurse into, so this is equivalent to Walk today, but is
// kept distinct because validation, unlike matching, must visit every
// leaf regardless of tag).
func walkAll(n *Node, visit func(*Node)) {
	Walk(n, visit)
}

// referencedVars returns every VarID node n reads directly (not
// recursively - Walk already handles Bool recursion).
func referencedVars(n *Node) []domain.VarID {
	switch n.Tag {
	case TagNumericCompare, TagEquality, TagList, TagString:
		return []domain.VarID{n.AttrVar}
	case TagBool:
		if n.Op == OpVariable {
			return []domain.VarID{n.AttrVar}
		}
	case TagSet:
		var out []domain.VarID
		if n.SetLeft.IsVariable {
			out = append(out, n.SetLeft.VarID)
		}
		if n.SetRight.IsVariable {
			out = append(out, n.SetRight.VarID)
		}
		return out
	}
	return nil
}
