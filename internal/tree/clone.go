package tree

import "github.com/solatis/betree/internal/domain"

// Clone implements clone_node: a deep copy that preserves the node's
// predicate id. Used by the predicate map to take ownership of a
// canonical representative instead of aliasing the caller's tree.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.LHS = Clone(n.LHS)
	c.RHS = Clone(n.RHS)
	c.Value.IntList = append([]int64(nil), n.Value.IntList...)
	c.Value.StringList = append([]domain.StringValue(nil), n.Value.StringList...)
	c.SetLeft.Value.IntList = append([]int64(nil), n.SetLeft.Value.IntList...)
	c.SetLeft.Value.StringList = append([]domain.StringValue(nil), n.SetLeft.Value.StringList...)
	c.SetRight.Value.IntList = append([]int64(nil), n.SetRight.Value.IntList...)
	c.SetRight.Value.StringList = append([]domain.StringValue(nil), n.SetRight.Value.StringList...)
	return &c
}

// Free implements free_ast_node. Go's garbage collector reclaims node
// memory once unreachable; this exists purely to preserve the API shape
// the source exposes and as a single point to assert a node is not
// reused after being freed, should a future caller need that.
func Free(n *Node) {
	_ = n
}

// Walk calls visit for n and, recursively, every Bool child of n.
// Leaf nodes (including Special and comparison nodes) are visited once
// with no further recursion.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	if n.Tag == TagBool {
		switch n.Op {
		case OpAnd, OpOr:
			Walk(n.LHS, visit)
			Walk(n.RHS, visit)
		case OpNot:
			Walk(n.LHS, visit)
		}
	}
}
