package tree

import (
	"testing"

	"github.com/solatis/betree/internal/domain"
)

func TestEq_NumericCompare(t *testing.T) {
	a := NumericCompare(OpGE, domain.VarID(1), domain.IntValue(10))
	b := NumericCompare(OpGE, domain.VarID(1), domain.IntValue(10))
	c := NumericCompare(OpGE, domain.VarID(1), domain.IntValue(11))
	d := NumericCompare(OpGT, domain.VarID(1), domain.IntValue(10))

	if !Eq(a, b) {
		t.Errorf("Eq(a, b) = false, want true")
	}
	if Eq(a, c) {
		t.Errorf("Eq(a, c) = true, want false (different literal)")
	}
	if Eq(a, d) {
		t.Errorf("Eq(a, d) = true, want false (different op)")
	}
}

func TestEq_BoolCombinators(t *testing.T) {
	leaf1 := NumericCompare(OpGE, domain.VarID(1), domain.IntValue(10))
	leaf2 := NumericCompare(OpLE, domain.VarID(1), domain.IntValue(20))

	a := And(NumericCompare(OpGE, domain.VarID(1), domain.IntValue(10)), NumericCompare(OpLE, domain.VarID(1), domain.IntValue(20)))
	b := And(leaf1, leaf2)
	c := Or(leaf1, leaf2)

	if !Eq(a, b) {
		t.Errorf("Eq(a, b) = false, want true (structurally identical AND trees)")
	}
	if Eq(a, c) {
		t.Errorf("Eq(a, c) = true, want false (AND vs OR)")
	}
}

func TestEq_SegmentIncludesSegmentID(t *testing.T) {
	a := Segment(OpWithin, 1, 3600)
	b := Segment(OpWithin, 1, 3600)
	c := Segment(OpWithin, 2, 3600)

	if !Eq(a, b) {
		t.Errorf("Eq(a, b) = false, want true")
	}
	if Eq(a, c) {
		t.Errorf("Eq(a, c) = true, want false (different segment id)")
	}
}

func TestEq_Nil(t *testing.T) {
	if !Eq(nil, nil) {
		t.Errorf("Eq(nil, nil) = false, want true")
	}
	leaf := Variable(domain.VarID(0))
	if Eq(nil, leaf) || Eq(leaf, nil) {
		t.Errorf("Eq(nil, non-nil) = true, want false")
	}
}

func TestClone_PreservesID(t *testing.T) {
	n := NumericCompare(OpGE, domain.VarID(1), domain.IntValue(10))
	n.ID = domain.PredID(42)

	clone := Clone(n)
	if clone.ID != n.ID {
		t.Errorf("clone.ID = %v, want %v", clone.ID, n.ID)
	}
	if !Eq(n, clone) {
		t.Errorf("Eq(n, clone) = false, want true")
	}
}

func TestClone_DeepCopiesIntList(t *testing.T) {
	n := List(OpOneOf, domain.VarID(1), domain.IntListValue([]int64{1, 2, 3}))
	clone := Clone(n)

	clone.Value.IntList[0] = 999
	if n.Value.IntList[0] == clone.Value.IntList[0] {
		t.Errorf("mutating clone.Value.IntList mutated the original's backing array too")
	}
}

func TestClone_DeepCopiesSetOperandIntList(t *testing.T) {
	n := Set(OpIn,
		SetOperand{IsVariable: true, VarID: domain.VarID(1)},
		SetOperand{Value: domain.IntListValue([]int64{1, 2, 3})},
	)
	clone := Clone(n)

	clone.SetRight.Value.IntList[0] = 999
	if n.SetRight.Value.IntList[0] == clone.SetRight.Value.IntList[0] {
		t.Errorf("mutating clone.SetRight.Value.IntList mutated the original's backing array too")
	}
}

func TestWalk_VisitsBoolSubtreeOnly(t *testing.T) {
	leaf1 := NumericCompare(OpGE, domain.VarID(1), domain.IntValue(10))
	leaf2 := NumericCompare(OpLE, domain.VarID(1), domain.IntValue(20))
	root := And(leaf1, leaf2)

	var visited []*Node
	Walk(root, func(n *Node) { visited = append(visited, n) })

	if len(visited) != 3 {
		t.Fatalf("len(visited) = %d, want 3 (root + 2 leaves)", len(visited))
	}
}
