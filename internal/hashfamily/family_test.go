package hashfamily

import "testing"

func TestRowsDiffer(t *testing.T) {
	f := New(42)
	key := []byte("10.0.0.1:443->10.0.0.2:51000")
	h1, h2 := f.Base(key)
	seen := make(map[uint64]bool)
	for i := 0; i < 8; i++ {
		r := Row(h1, h2, i)
		if seen[r] {
			t.Fatalf("row %d collided with a previous row for the same key", i)
		}
		seen[r] = true
	}
}

func TestDifferentSeedsDecorrelate(t *testing.T) {
	key := []byte("flow-key")
	a := New(1).Hash(key, 0)
	b := New(2).Hash(key, 0)
	if a == b {
		t.Fatal("different seeds produced the same hash for row 0")
	}
}

func TestDeterministic(t *testing.T) {
	f := New(7)
	key := []byte("abc")
	if f.Hash(key, 3) != f.Hash(key, 3) {
		t.Fatal("hash family must be deterministic")
	}
}
