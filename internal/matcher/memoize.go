package matcher

import "github.com/RoaringBitmap/roaring/v2"

// Memoize is the per-evaluation memoization cache: two bitsets (pass,
// fail) indexed by predicate id, giving three states per id - unknown,
// pass, fail - without an explicit enum. Backed by roaring bitmaps so a
// sparse evaluation (most nodes never touched for a given event) never
// pays for a dense array sized to the whole predicate population.
//
// Owned exclusively by one evaluation; never shared across goroutines.
type Memoize struct {
	pass *roaring.Bitmap
	fail *roaring.Bitmap
}

// NewMemoize allocates an empty Memoize. The two bitmaps are allocated
// lazily on first write, so a match that never hits a memoizable node
// costs nothing beyond this struct.
func NewMemoize() *Memoize {
	return &Memoize{}
}

// lookup returns (result, found) for id: found is false if neither bit
// is set.
func (m *Memoize) lookup(id uint64) (bool, bool) {
	if m == nil {
		return false, false
	}
	if m.pass != nil && m.pass.Contains(uint32(id)) {
		return true, true
	}
	if m.fail != nil && m.fail.Contains(uint32(id)) {
		return false, true
	}
	return false, false
}

func (m *Memoize) record(id uint64, result bool) {
	if m == nil {
		return
	}
	if result {
		if m.pass == nil {
			m.pass = roaring.New()
		}
		m.pass.Add(uint32(id))
		return
	}
	if m.fail == nil {
		m.fail = roaring.New()
	}
	m.fail.Add(uint32(id))
}
