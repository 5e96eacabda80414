package pool

import "sync"

// RuneSet is a reusable set of unique runes.
type RuneSet struct {
	m map[rune]struct{}
}

// Add inserts every rune of s.
func (rs *RuneSet) Add(s string) {
	for _, r := range s {
		rs.m[r] = struct{}{}
	}
}

// Has reports whether r is in the set.
func (rs *RuneSet) Has(r rune) bool {
	_, ok := rs.m[r]
	return ok
}

// Len returns the number of unique runes.
func (rs *RuneSet) Len() int {
	return len(rs.m)
}

// Each calls fn for every rune in the set.
func (rs *RuneSet) Each(fn func(r rune)) {
	for r := range rs.m {
		fn(r)
	}
}

// Reset empties the set but keeps its storage.
func (rs *RuneSet) Reset() {
	clear(rs.m)
}

// RuneSetPool implements a pool of rune sets for efficient memory reuse
type RuneSetPool struct {
	pool sync.Pool
	// maxRetained caps the size of sets returned to the pool so one huge
	// input does not pin a large map forever.
	maxRetained int
}

// NewRuneSetPool creates a pool whose sets start with room for size runes.
func NewRuneSetPool(size int) *RuneSetPool {
	return &RuneSetPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &RuneSet{m: make(map[rune]struct{}, size)}
			},
		},
		maxRetained: size * 16,
	}
}

// Get retrieves an empty set from the pool or creates a new one if none are available
func (p *RuneSetPool) Get() *RuneSet {
	return p.pool.Get().(*RuneSet)
}

// Put returns a set to the pool for reuse
func (p *RuneSetPool) Put(rs *RuneSet) {
	if rs.Len() > p.maxRetained {
		return
	}
	rs.Reset()
	p.pool.Put(rs)
}

// Default is the shared pool used by the similarity scorer.
var Default = NewRuneSetPool(64)
