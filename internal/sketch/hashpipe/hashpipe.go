// Package hashpipe implements the HashPipe sketch adapter: a depth-D,
// width-W table where an update either hits its row's resident flow, takes an
// empty slot, or evicts the current occupant down the pipe toward the next
// row, carrying the lesser of the two values forward. Eviction accounting
// uses the pool's uniform_update/Est bypass (spec §9) instead of the normal
// round-robin update, since the delta applied is a correction against an
// already-recorded value rather than a fresh stream record.
package hashpipe

import (
	"bytes"

	"github.com/hovering-clouds/acsengine/internal/acs"
	"github.com/hovering-clouds/acsengine/internal/arith"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/sketch"
)

// bypassGroup is the physical group HashPipe's Est/UniformUpdate bypass
// always targets for a given virtual index. Any fixed group works: the
// restoration pipeline sums raw physical mass per group regardless of which
// group received a particular delta, so pinning eviction corrections to one
// group doesn't violate the pool's mass-conservation invariant.
const bypassGroup = 0

type entry struct {
	key     []byte
	present bool
}

// Sketch is a HashPipe table whose depth*width virtual counters live in a
// shared ACS pool.
type Sketch struct {
	depth  int
	width  int64
	offset int64
	pool   *acs.Pool
	fam    *hashfamily.Family

	slots [][]entry
}

// New builds a HashPipe sketch of the given depth and requested width (width
// is rounded up to the next prime).
func New(depth int, width int64, fam *hashfamily.Family) *Sketch {
	if depth <= 0 {
		depth = 3
	}
	if width <= 0 {
		width = 1024
	}
	width = arith.NextPrime(width)
	slots := make([][]entry, depth)
	for i := range slots {
		slots[i] = make([]entry, width)
	}
	return &Sketch{depth: depth, width: width, fam: fam, slots: slots}
}

func (s *Sketch) CounterCount() int64 { return int64(s.depth) * s.width }

func (s *Sketch) Bind(offset int64, pool *acs.Pool) {
	s.offset = offset
	s.pool = pool
}

func (s *Sketch) virtualIndex(row int, col int64) int64 {
	return s.offset + int64(row)*s.width + col
}

func (s *Sketch) Update(key []byte, delta int64) {
	col := int64(s.fam.Hash(key, 0) % uint64(s.width))
	vIdx := s.virtualIndex(0, col)

	switch {
	case s.slots[0][col].present && bytes.Equal(s.slots[0][col].key, key):
		s.pool.Update(vIdx, delta)
		return
	case !s.slots[0][col].present:
		s.pool.Update(vIdx, delta)
		s.slots[0][col] = entry{key: cloneKey(key), present: true}
		return
	}

	// Occupied by a different flow: swap it out and carry its current
	// value down the pipe, crediting the challenger here.
	cKey := s.slots[0][col].key
	cVal := s.pool.Est(bypassGroup, vIdx)
	s.slots[0][col] = entry{key: cloneKey(key), present: true}
	s.pool.UniformUpdate(s.pool.PhysicalSlot(bypassGroup, vIdx), delta-cVal)

	for row := 1; row < s.depth; row++ {
		col = int64(s.fam.Hash(cKey, row) % uint64(s.width))
		vIdx = s.virtualIndex(row, col)

		switch {
		case s.slots[row][col].present && bytes.Equal(s.slots[row][col].key, cKey):
			s.pool.Update(vIdx, cVal)
			return
		case !s.slots[row][col].present:
			s.pool.Update(vIdx, cVal)
			s.slots[row][col] = entry{key: cloneKey(cKey), present: true}
			return
		}

		newCVal := s.pool.Est(bypassGroup, vIdx)
		if newCVal < cVal {
			tmp := cKey
			cKey = s.slots[row][col].key
			s.slots[row][col] = entry{key: cloneKey(tmp), present: true}
			s.pool.UniformUpdate(s.pool.PhysicalSlot(bypassGroup, vIdx), cVal-newCVal)
			cVal = newCVal
		}
	}
	// Evicted off the end of the pipe: cVal's remaining mass is dropped,
	// matching the source's in-row eviction semantics.
}

func (s *Sketch) Query(key []byte) int64 {
	var total int64
	for row := 0; row < s.depth; row++ {
		col := int64(s.fam.Hash(key, row) % uint64(s.width))
		if s.slots[row][col].present && bytes.Equal(s.slots[row][col].key, key) {
			total += s.pool.Query(s.virtualIndex(row, col))
		}
	}
	return total
}

func (s *Sketch) HeavyHitters(threshold int64) []sketch.HeavyHitter {
	checked := make(map[string]bool)
	out := make([]sketch.HeavyHitter, 0)
	for row := 0; row < s.depth; row++ {
		for col := int64(0); col < s.width; col++ {
			e := s.slots[row][col]
			if !e.present {
				continue
			}
			k := string(e.key)
			if checked[k] {
				continue
			}
			checked[k] = true
			if v := s.Query(e.key); v >= threshold {
				out = append(out, sketch.HeavyHitter{Key: e.key, Value: v})
			}
		}
	}
	return out
}

func cloneKey(key []byte) []byte {
	cp := make([]byte, len(key))
	copy(cp, key)
	return cp
}
