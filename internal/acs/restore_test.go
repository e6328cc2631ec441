package acs

import (
	"math/rand"
	"testing"
)

func TestGetLargeIDSynthesis(t *testing.T) {
	p := NewPool()
	p.InitParam(256, 120, 6, 0, defaultHP())
	p.initRestore()

	want := []int64{0, 101, 202}
	for i := 0; i < p.k; i++ {
		for _, v := range want {
			p.counter[p.physicalSlot(i, v)] = 10
		}
	}

	got := p.getLargeID(0.1, ThetaMethod)
	gotSet := make(map[int64]bool)
	for _, v := range got {
		gotSet[v] = true
	}
	if len(gotSet) != len(want) {
		t.Fatalf("getLargeID returned %v, want exactly %v", got, want)
	}
	for _, v := range want {
		if !gotSet[v] {
			t.Fatalf("getLargeID missing %d, got %v", v, got)
		}
	}
}

func TestFullRestoreOfSyntheticLargeCounters(t *testing.T) {
	p := NewPool()
	p.InitParam(256, 120, 6, 0, Hyperparams{GetMethod: ThetaMethod, IterNum: 2, Clip: 0, InitVal: 0.1, StepVal: 2})
	p.initRestore()

	heavy := []int64{0, 101, 202}
	heavySet := map[int64]bool{0: true, 101: true, 202: true}
	for i := 0; i < p.k; i++ {
		for _, v := range heavy {
			p.counter[p.physicalSlot(i, v)] = 10
		}
	}

	ids := p.getLargeID(0.1, ThetaMethod)
	p.restoreLarge(ids, 0)
	p.restoreSmall()
	p.restoreComplete = true

	for _, v := range heavy {
		if got := p.Query(v); got != 60 {
			t.Fatalf("query(%d) = %d, want 60", v, got)
		}
	}
	for v := int64(0); v < 256; v++ {
		if heavySet[v] {
			continue
		}
		if got := p.Query(v); got != 0 {
			t.Fatalf("query(%d) = %d, want 0", v, got)
		}
	}
}

func TestRandomWorkloadSingleGroup(t *testing.T) {
	p := NewPool()
	p.InitParam(256, 256, 1, 0, defaultHP())

	rng := rand.New(rand.NewSource(1))
	truth := make(map[int64]int64)
	for i := 0; i < 10000; i++ {
		v := int64(rng.Intn(256))
		delta := int64(rng.Intn(256))
		p.Update(v, delta)
		truth[v] += delta
	}
	p.Restore()
	for v := int64(0); v < 256; v++ {
		if got := p.Query(v); got != truth[v] {
			t.Fatalf("query(%d) = %d, want %d", v, got, truth[v])
		}
	}
}

func TestShadowOverflowScenario(t *testing.T) {
	p := NewPool()
	p.InitParam(256, 120, 6, 4, Hyperparams{GetMethod: ThetaMethod, IterNum: 2, Clip: 0, InitVal: 0.1, StepVal: 2})

	for v := int64(0); v < 256; v++ {
		p.Update(v, 12)
	}
	for i := 0; i < 10000; i++ {
		p.Update(0, 1)
	}

	p.Restore()

	got := p.Query(0)
	if got < 10000 || got > 10500 {
		t.Fatalf("query(0) = %d, want roughly 10012", got)
	}
	for v := int64(1); v < 256; v++ {
		if got := p.Query(v); got != 12 {
			t.Fatalf("query(%d) = %d, want 12", v, got)
		}
	}
}
