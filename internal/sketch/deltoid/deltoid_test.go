package deltoid

import (
	"testing"

	"github.com/hovering-clouds/acsengine/internal/acs"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
)

func newExactPool(n int64) *acs.Pool {
	p := acs.NewPool()
	p.InitParam(n, n, 1, 0, acs.Hyperparams{GetMethod: acs.ThetaMethod, IterNum: 1, Clip: 0, InitVal: 0.1, StepVal: 2})
	return p
}

func TestDeltoidExactUnderSingleGroup(t *testing.T) {
	fam := hashfamily.New(3)
	s := New(4, 101, 4, fam) // 4-byte keys

	pool := newExactPool(s.CounterCount())
	s.Bind(0, pool)

	keyA := []byte{0x01, 0x02, 0x03, 0x04}
	keyB := []byte{0xFF, 0x00, 0xAB, 0xCD}

	s.Update(keyA, 7)
	s.Update(keyA, 3)
	s.Update(keyB, 5)
	pool.Restore()

	if got := s.Query(keyA); got != 10 {
		t.Errorf("Query(keyA) = %d, want 10", got)
	}
	if got := s.Query(keyB); got != 5 {
		t.Errorf("Query(keyB) = %d, want 5", got)
	}
}

func TestDeltoidHeavyHitterRecovery(t *testing.T) {
	fam := hashfamily.New(9)
	s := New(5, 211, 4, fam)
	pool := newExactPool(s.CounterCount())
	s.Bind(0, pool)

	heavy := []byte{0x12, 0x34, 0x56, 0x78}
	s.Update(heavy, 1000)
	light := []byte{0x00, 0x00, 0x00, 0x01}
	s.Update(light, 2)
	pool.Restore()

	hh := s.HeavyHitters(100)
	found := false
	for _, h := range hh {
		if string(h.Key) == string(heavy) {
			found = true
			if h.Value != 1000 {
				t.Errorf("recovered heavy hitter value = %d, want 1000", h.Value)
			}
		}
	}
	if !found {
		t.Fatalf("HeavyHitters(100) did not recover the heavy key, got %+v", hh)
	}
}

func TestGetSetBitRoundTrip(t *testing.T) {
	key := make([]byte, 4)
	setBit(key, 0, true)
	setBit(key, 9, true)
	setBit(key, 31, true)

	if !getBit(key, 0) || !getBit(key, 9) || !getBit(key, 31) {
		t.Fatalf("expected bits 0, 9, 31 set, got %08b", key)
	}
	if getBit(key, 1) || getBit(key, 8) {
		t.Fatalf("unexpected bit set, got %08b", key)
	}
}
