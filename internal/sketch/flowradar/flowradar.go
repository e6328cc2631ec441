// Package flowradar implements the Flow Radar sketch adapter: a counting
// flow filter (presence bitmap) followed by a count table, both contributing
// virtual counters to the shared pool, per spec §4.D. The upstream
// ACS_FlowRadar implementation (which recovers flow keys from the filter via
// IBLT-style XOR decoding) isn't part of the retrieved source; this adapter
// reconstructs the virtual-counter layout spec.md describes and tracks
// observed keys directly for heavy-hitter recall, the same way the shared
// pool's other adapters do.
package flowradar

import (
	"slices"

	"github.com/hovering-clouds/acsengine/internal/acs"
	"github.com/hovering-clouds/acsengine/internal/arith"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/sketch"
)

const maxSeenKeys = 1 << 20

// Sketch is a Flow Radar whose filter+count-table virtual counters live in a
// shared ACS pool.
type Sketch struct {
	filterHash int
	filterBit  int64
	countHash  int
	countNum   int64

	offset      int64
	countOffset int64

	pool *acs.Pool
	fam  *hashfamily.Family

	seen map[string][]byte
}

// New builds a Flow Radar with a counting flow filter of filterHash rows,
// each filterBit counters wide and indexed by its own hash function, and a
// countHash x countNum (rounded to the next prime) count table.
func New(filterHash int, filterBit int64, countHash int, countNum int64, fam *hashfamily.Family) *Sketch {
	if filterHash <= 0 {
		filterHash = 4
	}
	if filterBit <= 0 {
		filterBit = 1 << 16
	}
	if countHash <= 0 {
		countHash = 3
	}
	if countNum <= 0 {
		countNum = 1024
	}
	return &Sketch{
		filterHash: filterHash,
		filterBit:  filterBit,
		countHash:  countHash,
		countNum:   arith.NextPrime(countNum),
		fam:        fam,
		seen:       make(map[string][]byte),
	}
}

func (s *Sketch) CounterCount() int64 {
	return int64(s.filterHash)*s.filterBit + int64(s.countHash)*s.countNum
}

func (s *Sketch) Bind(offset int64, pool *acs.Pool) {
	s.offset = offset
	s.countOffset = offset + int64(s.filterHash)*s.filterBit
	s.pool = pool
}

func (s *Sketch) filterIndex(key []byte, row int) int64 {
	col := int64(s.fam.Hash(key, row) % uint64(s.filterBit))
	return s.offset + int64(row)*s.filterBit + col
}

// countIndex uses hash rows past filterHash so the count table's hash family
// is decorrelated from the filter's.
func (s *Sketch) countIndex(key []byte, row int) int64 {
	col := int64(s.fam.Hash(key, s.filterHash+row) % uint64(s.countNum))
	return s.countOffset + int64(row)*s.countNum + col
}

func (s *Sketch) Update(key []byte, delta int64) {
	for i := 0; i < s.filterHash; i++ {
		s.pool.Update(s.filterIndex(key, i), 1)
	}
	for i := 0; i < s.countHash; i++ {
		s.pool.Update(s.countIndex(key, i), delta)
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

func (s *Sketch) present(key []byte) bool {
	for i := 0; i < s.filterHash; i++ {
		if s.pool.Query(s.filterIndex(key, i)) <= 0 {
			return false
		}
	}
	return true
}

func (s *Sketch) Query(key []byte) int64 {
	if !s.present(key) {
		return 0
	}
	min := int64(-1)
	for i := 0; i < s.countHash; i++ {
		v := s.pool.Query(s.countIndex(key, i))
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
		if v := s.Query(key); v >= threshold {
			out = append(out, sketch.HeavyHitter{Key: key, Value: v})
		}
	}
	slices.SortFunc(out, func(a, b sketch.HeavyHitter) int {
		return int(b.Value - a.Value)
	})
	return out
}
