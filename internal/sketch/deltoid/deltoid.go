// Package deltoid implements the Deltoid sketch adapter: per (hash row,
// group) cell, one virtual counter per bit of the flow key is updated
// whenever that bit is set. An auxiliary per-(row, group) sum counter is
// kept outside the pool (it isn't itself subject to CRT sharing) so queries
// and heavy-hitter recovery can recover the zero-bit mass by subtraction.
package deltoid

import (
	"github.com/hovering-clouds/acsengine/internal/acs"
	"github.com/hovering-clouds/acsengine/internal/arith"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/sketch"
)

// Sketch is a Deltoid table whose numHash*numGroup*nbits virtual counters
// live in a shared ACS pool, plus a private sum counter per (row, group)
// cell.
type Sketch struct {
	numHash  int
	numGroup int64
	keyLen   int // bytes
	nbits    int
	offset   int64
	pool     *acs.Pool
	fam      *hashfamily.Family

	sumCounter []int64
}

// New builds a Deltoid sketch with numHash hash rows, numGroup groups per
// row (rounded to the next prime), over keys of keyLen bytes.
func New(numHash int, numGroup int64, keyLen int, fam *hashfamily.Family) *Sketch {
	if numHash <= 0 {
		numHash = 4
	}
	if numGroup <= 0 {
		numGroup = 1024
	}
	numGroup = arith.NextPrime(numGroup)
	return &Sketch{
		numHash:    numHash,
		numGroup:   numGroup,
		keyLen:     keyLen,
		nbits:      keyLen * 8,
		fam:        fam,
		sumCounter: make([]int64, int64(numHash)*numGroup),
	}
}

func (s *Sketch) CounterCount() int64 {
	return int64(s.numHash) * s.numGroup * int64(s.nbits)
}

func (s *Sketch) Bind(offset int64, pool *acs.Pool) {
	s.offset = offset
	s.pool = pool
}

func getBit(key []byte, j int) bool {
	return key[j/8]&(1<<uint(j%8)) != 0
}

func setBit(key []byte, j int, v bool) {
	if v {
		key[j/8] |= 1 << uint(j%8)
	}
}

func (s *Sketch) cellBase(row int, group int64) int64 {
	return s.offset + (int64(row)*s.numGroup+group)*int64(s.nbits)
}

func (s *Sketch) Update(key []byte, delta int64) {
	for i := 0; i < s.numHash; i++ {
		group := int64(s.fam.Hash(key, i) % uint64(s.numGroup))
		base := s.cellBase(i, group)
		for j := 0; j < s.nbits; j++ {
			if getBit(key, j) {
				s.pool.Update(base+int64(j), delta)
			}
		}
		s.sumCounter[int64(i)*s.numGroup+group] += delta
	}
}

func (s *Sketch) Query(key []byte) int64 {
	min := int64(-1)
	for i := 0; i < s.numHash; i++ {
		group := int64(s.fam.Hash(key, i) % uint64(s.numGroup))
		base := s.cellBase(i, group)
		cellTotal := s.sumCounter[int64(i)*s.numGroup+group]
		for j := 0; j < s.nbits; j++ {
			var v int64
			if getBit(key, j) {
				v = s.pool.Query(base + int64(j))
			} else {
				v = cellTotal - s.pool.Query(base+int64(j))
			}
			if min == -1 || v < min {
				min = v
			}
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

func (s *Sketch) HeavyHitters(threshold int64) []sketch.HeavyHitter {
	seen := make(map[string]bool)
	out := make([]sketch.HeavyHitter, 0)
	for i := 0; i < s.numHash; i++ {
		for group := int64(0); group < s.numGroup; group++ {
			cellTotal := s.sumCounter[int64(i)*s.numGroup+group]
			if cellTotal <= threshold {
				continue
			}
			base := s.cellBase(i, group)
			candidate := make([]byte, s.keyLen)
			reject := false
			for j := 0; j < s.nbits; j++ {
				cnt1 := s.pool.Query(base + int64(j))
				cnt0 := cellTotal - cnt1
				t1 := cnt1 > threshold
				t0 := cnt0 > threshold
				if t1 == t0 {
					reject = true
					break
				}
				if t1 {
					setBit(candidate, j, true)
				}
			}
			if reject {
				continue
			}
			k := string(candidate)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, sketch.HeavyHitter{Key: candidate, Value: s.Query(candidate)})
		}
	}
	return out
}
