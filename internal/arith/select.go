package arith

// IncrementMap increments the count associated with key in m, inserting 1 if
// it is absent. Mirrors Util::insertCntMap from the source.
func IncrementMap(m map[int64]int64, key int64) {
	m[key]++
}

// NthLargest returns the value at rank k (0-based, largest first) in seq
// after a partial reorder. The input slice is a copy, so the caller's slice
// is left untouched. Undefined (panics) for an empty seq.
func NthLargest[T Ordered](seq []T, k int) T {
	if len(seq) == 0 {
		panic("arith: NthLargest on empty sequence")
	}
	if k < 0 {
		k = 0
	}
	if k >= len(seq) {
		k = len(seq) - 1
	}
	work := make([]T, len(seq))
	copy(work, seq)
	quickselectDesc(work, k)
	return work[k]
}

// Ordered is the set of types NthLargest can rank.
type Ordered interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// quickselectDesc partitions work in place so that work[k] holds the element
// that would occupy position k if work were sorted largest-first.
func quickselectDesc[T Ordered](work []T, k int) {
	lo, hi := 0, len(work)-1
	for lo < hi {
		p := partitionDesc(work, lo, hi)
		switch {
		case p == k:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partitionDesc[T Ordered](work []T, lo, hi int) int {
	pivot := work[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if work[j] > pivot {
			work[i], work[j] = work[j], work[i]
			i++
		}
	}
	work[i], work[hi] = work[hi], work[i]
	return i
}
