// Package hashfamily derives D independent row hashes from a single key
// using double hashing, the same trick benitolopez-limite's CMS uses: one
// xxhash pass, then a SplitMix64 mix to decorrelate a second component so a
// full family of hashes can be built without re-hashing the key D times.
package hashfamily

import "github.com/cespare/xxhash/v2"

// Family produces an arbitrary number of independent-looking uint64 hashes
// for a given key.
type Family struct {
	seed uint64
}

// New returns a Family with the given seed. The seed is XORed into the base
// hash, so two Families built with different seeds produce different rows
// over the same keys; row 0 of the two differs only in the seed bits.
func New(seed uint64) *Family {
	return &Family{seed: seed}
}

// Base computes the two decorrelated components used to derive every row
// hash for key. Exposed so callers that need many rows (Count-Min depth,
// Deltoid hash count) can call it once per key instead of once per row.
func (f *Family) Base(key []byte) (h1, h2 uint64) {
	h1 = xxhash.Sum64(key) ^ f.seed
	h2 = splitMix64(h1)
	return h1, h2
}

// Row derives the row-th hash (0-based) for key from already-computed base
// components, following h_i(x) = h1 + i*h2.
func Row(h1, h2 uint64, row int) uint64 {
	return h1 + uint64(row)*h2
}

// Hash is shorthand for Row(Base(key), row) when only a single row is
// needed.
func (f *Family) Hash(key []byte, row int) uint64 {
	h1, h2 := f.Base(key)
	return Row(h1, h2, row)
}

// splitMix64 decorrelates a 64-bit value into a second, statistically
// independent one without touching the original input bytes.
func splitMix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
