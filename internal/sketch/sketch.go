// Package sketch defines the contract every ACS-backed sketch implementation
// honors to plug into a shared counter pool.
package sketch

import (
	"github.com/hovering-clouds/acsengine/internal/acs"
)

// HeavyHitter is one entry of a sketch's post-restore heavy-hitter report.
type HeavyHitter struct {
	Key   []byte
	Value int64
}

// Sketch is the contract a participating sketch honors to bind a range of
// virtual counters into a shared pool: compute how many it needs, receive its
// assigned offset, absorb stream records during the update phase, and answer
// queries once the pool has been restored.
type Sketch interface {
	// CounterCount returns the number of virtual counters this sketch needs.
	CounterCount() int64

	// Bind receives the sketch's assigned global offset into the pool's
	// virtual index space and a handle to the shared pool.
	Bind(offset int64, pool *acs.Pool)

	// Update absorbs one stream record: a flow key and the delta this
	// record contributes (1 for packet counting, byte length otherwise).
	Update(key []byte, delta int64)

	// Query answers a point query for key. Valid only after the pool's
	// Restore has completed.
	Query(key []byte) int64

	// HeavyHitters reports candidate heavy keys with their restored values.
	// Candidates depend on the implementation: Count-Min and Flow Radar
	// check the keys they recorded on update (up to a fixed cap), HashPipe
	// checks the keys currently resident in its table, and both keep those
	// whose value is at least threshold; Deltoid decodes keys bit by bit
	// from cells whose total exceeds threshold. Keys outside an
	// implementation's candidate set are not reported.
	HeavyHitters(threshold int64) []HeavyHitter
}
