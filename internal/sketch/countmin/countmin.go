// Package countmin implements the Count-Min sketch adapter: D rows by W
// columns, W forced to the next prime at or above the configured width to
// reduce hash collisions, backed entirely by virtual counters in a shared
// ACS pool.
package countmin

import (
	"slices"

	"github.com/hovering-clouds/acsengine/internal/acs"
	"github.com/hovering-clouds/acsengine/internal/arith"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/sketch"
)

const maxSeenKeys = 1 << 20

// Sketch is a Count-Min sketch whose depth*width virtual counters live in a
// shared ACS pool rather than a private table.
type Sketch struct {
	depth  int
	width  int64
	offset int64
	pool   *acs.Pool
	fam    *hashfamily.Family

	seen map[string][]byte
}

// New builds a Count-Min sketch of the given depth and requested width (width
// is rounded up to the next prime).
func New(depth int, width int64, fam *hashfamily.Family) *Sketch {
	if depth <= 0 {
		depth = 3
	}
	if width <= 0 {
		width = 1024
	}
	return &Sketch{
		depth: depth,
		width: arith.NextPrime(width),
		fam:   fam,
		seen:  make(map[string][]byte),
	}
}

func (s *Sketch) CounterCount() int64 { return int64(s.depth) * s.width }

func (s *Sketch) Bind(offset int64, pool *acs.Pool) {
	s.offset = offset
	s.pool = pool
}

func (s *Sketch) rowIndex(key []byte, row int) int64 {
	col := int64(s.fam.Hash(key, row) % uint64(s.width))
	return s.offset + col + int64(row)*s.width
}

func (s *Sketch) Update(key []byte, delta int64) {
	for i := 0; i < s.depth; i++ {
		s.pool.Update(s.rowIndex(key, i), delta)
	}
	if len(s.seen) < maxSeenKeys {
		k := string(key)
		if _, ok := s.seen[k]; !ok {
			cp := make([]byte, len(key))
			copy(cp, key)
			s.seen[k] = cp
		}
	}
}

func (s *Sketch) Query(key []byte) int64 {
	min := int64(-1)
	for i := 0; i < s.depth; i++ {
		v := s.pool.Query(s.rowIndex(key, i))
		if min == -1 || v < min {
			min = v
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

func (s *Sketch) HeavyHitters(threshold int64) []sketch.HeavyHitter {
	out := make([]sketch.HeavyHitter, 0)
	for _, key := range s.seen {
		v := s.Query(key)
		if v >= threshold {
			out = append(out, sketch.HeavyHitter{Key: key, Value: v})
		}
	}
	slices.SortFunc(out, func(a, b sketch.HeavyHitter) int {
		return int(b.Value - a.Value)
	})
	return out
}
