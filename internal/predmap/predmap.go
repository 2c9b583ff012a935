// Package predmap implements the Predicate Map: a content-addressed
// deduplicator assigning each structurally unique node (leaf predicate
// or Bool combinator) a stable, dense predicate id. It hashes a node's structural key with
// xxhash to find the probe bucket, then falls back to tree.Eq for
// collision-safe structural comparison within the bucket, exactly as
// the source's content-keyed map plus eq_expr fallback do.
package predmap

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/solatis/betree/internal/domain"
	"github.com/solatis/betree/internal/tree"
)

// entry pairs a canonical clone with its assigned id, one per bucket
// slot; a bucket may hold more than one entry when two structurally
// different nodes hash-collide.
type entry struct {
	node *tree.Node
	id   domain.PredID
}

// Map is the predicate map. Not safe for concurrent use; it is only
// ever written during the single-writer compilation phase.
type Map struct {
	buckets map[uint64][]entry
	next    domain.PredID
}

// New creates an empty predicate map.
func New() *Map {
	return &Map{buckets: make(map[uint64][]entry)}
}

// Len returns the number of distinct predicate ids assigned so far,
// i.e. pred_count for Memoize bitset sizing.
func (m *Map) Len() int {
	return int(m.next)
}

// AssignPredID implements assign_pred_id for a single node, leaf or
// Bool combinator (the compiler pass walks the tree and calls this per
// node). If an
// equal node is already registered, n.ID is set to its id and the
// existing id is returned; otherwise a fresh dense id is minted, a deep
// clone of n is stored as the canonical representative, and that id is
// both assigned to n and returned.
func (m *Map) AssignPredID(n *tree.Node) domain.PredID {
	key := structuralKey(n)
	bucket := m.buckets[key]
	for _, e := range bucket {
		if tree.Eq(e.node, n) {
			n.ID = e.id
			return e.id
		}
	}

	id := m.next
	m.next++

	canonical := tree.Clone(n)
	canonical.ID = id
	m.buckets[key] = append(bucket, entry{node: canonical, id: id})

	n.ID = id
	return id
}

// structuralKey computes a probe hash over a node's tag, op and payload.
// Collisions are expected and handled by AssignPredID's eq_expr
// fallback; this need not be collision-free, only well distributed.
func structuralKey(n *tree.Node) uint64 {
	h := xxhash.New()
	writeNodeKey(h, n)
	return h.Sum64()
}

func writeNodeKey(h *xxhash.Digest, n *tree.Node) {
	if n == nil {
		h.Write([]byte{0xff})
		return
	}
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeInt(int64(n.Tag))
	writeInt(int64(n.Op))
	writeInt(int64(n.AttrVar))

	switch n.Tag {
	case tree.TagNumericCompare, tree.TagEquality, tree.TagList:
		writeValueKey(h, n.Value)
	case tree.TagBool:
		switch n.Op {
		case tree.OpAnd, tree.OpOr:
			writeNodeKey(h, n.LHS)
			writeNodeKey(h, n.RHS)
		case tree.OpNot:
			writeNodeKey(h, n.LHS)
		}
	case tree.TagSet:
		writeSetOperandKey(h, n.SetLeft)
		writeSetOperandKey(h, n.SetRight)
	case tree.TagFrequencyCap:
		h.WriteString(n.FreqType)
		writeInt(int64(n.FreqNamespace.VarID))
		writeInt(int64(n.FreqNamespace.StrID))
		writeInt(n.FreqValue)
		writeInt(n.FreqLength)
	case tree.TagSegment:
		writeInt(n.SegmentID)
		writeInt(n.SegmentSeconds)
	case tree.TagGeo:
		h.WriteString(strconv.FormatFloat(n.GeoLat, 'g', -1, 64))
		h.WriteString(strconv.FormatFloat(n.GeoLon, 'g', -1, 64))
		h.WriteString(strconv.FormatFloat(n.GeoRadius, 'g', -1, 64))
	case tree.TagString:
		h.WriteString(n.StringPattern)
	}
}

func writeSetOperandKey(h *xxhash.Digest, op tree.SetOperand) {
	var buf [8]byte
	if op.IsVariable {
		buf[0] = 1
		h.Write(buf[:1])
		binary.LittleEndian.PutUint64(buf[:], uint64(op.VarID))
		h.Write(buf[:])
		return
	}
	buf[0] = 0
	h.Write(buf[:1])
	writeValueKey(h, op.Value)
}

func writeValueKey(h *xxhash.Digest, v domain.Value) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v.Tag))
	h.Write(buf[:])
	switch v.Tag {
	case domain.ValueInt64:
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Int))
		h.Write(buf[:])
	case domain.ValueFloat64:
		// The float itself is left out of the key so values within feq's
		// epsilon always land in the same probe slot; eq_expr decides the
		// final equality within the bucket.
	case domain.ValueString:
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Str.VarID))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Str.StrID))
		h.Write(buf[:])
	case domain.ValueIntList:
		for _, i := range v.IntList {
			binary.LittleEndian.PutUint64(buf[:], uint64(i))
			h.Write(buf[:])
		}
	case domain.ValueStringList:
		for _, s := range v.StringList {
			binary.LittleEndian.PutUint64(buf[:], uint64(s.VarID))
			h.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], uint64(s.StrID))
			h.Write(buf[:])
		}
	}
}
