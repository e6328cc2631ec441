// Package acs implements the Additive Counter Sharing counter pool: a large
// number of virtual, per-sketch counters folded onto a much smaller array of
// physical counters organized into pairwise-coprime groups, restored back to
// per-virtual estimates through a CRT-based extraction pipeline.
package acs

import (
	"fmt"

	"github.com/hovering-clouds/acsengine/internal/arith"
)

// GetIDMethod selects how getLargeId decides a physical slot is "large"
// during the iterative extraction phase.
type GetIDMethod int

const (
	ThetaMethod GetIDMethod = iota
	RankMethod
)

// Hyperparams bundles the restoration tuning knobs the driver configures a
// Pool with once, at initParam time.
type Hyperparams struct {
	GetMethod GetIDMethod
	IterNum   int
	Clip      int
	InitVal   float64
	StepVal   float64
}

// Pool is the shared physical counter array every participating sketch binds
// a virtual-counter range into. It is not safe for concurrent use: updates,
// restore, and queries happen in strict phases by a single writer, per the
// core's single-threaded, non-durable design.
type Pool struct {
	isInitialized bool
	restoreInited bool
	useShadow     bool
	shadowBits    uint

	n int64 // number of virtual counters
	m int64 // number of physical counters
	k int   // number of groups

	gpnum  []int64 // size of each group
	cumnum []int64 // prefix sums, len k+1

	counter []int64
	shadow  []ShadowCounter

	updateCnt uint64

	hp Hyperparams

	// restoration-only state, allocated by initRestore
	sharedCnt       []int64
	restoredValue   []int64
	isRestored      []bool
	unrestored      int64
	restoreComplete bool
}

// NewPool returns an uninitialized pool. Call InitParam exactly once before
// any Update/Query/Restore call.
func NewPool() *Pool {
	return &Pool{}
}

// InitParam parametrizes the pool: n virtual counters, a target physical
// budget mTarget spread across k pairwise-coprime groups, an optional shadow
// counter width shadowBits (0 disables the shadow channel), and the
// restoration hyperparameters used by Restore.
//
// It is a contract violation — and therefore a fatal panic — to call
// InitParam twice on the same Pool.
func (p *Pool) InitParam(n, mTarget int64, k int, shadowBits uint, hp Hyperparams) {
	if p.isInitialized {
		panic("acs: InitParam called on an already-initialized pool")
	}
	p.isInitialized = true
	p.n = n
	p.k = k
	p.hp = hp

	p.gpnum = chooseCoprimeGroupSizes(mTarget/int64(k), k)
	p.cumnum = make([]int64, k+1)
	for i := 0; i < k; i++ {
		p.cumnum[i+1] = p.cumnum[i] + p.gpnum[i]
	}
	p.m = p.cumnum[k]
	p.counter = make([]int64, p.m)

	if shadowBits > 0 {
		p.useShadow = true
		p.shadowBits = shadowBits
		p.shadow = make([]ShadowCounter, n)
	}
}

// chooseCoprimeGroupSizes finds the smallest sequence of k pairwise coprime
// integers, starting the successor search at start and strictly increasing,
// matching ACScounter::initParam's nested search exactly.
func chooseCoprimeGroupSizes(start int64, k int) []int64 {
	gpnum := make([]int64, 0, k)
	last := start
	for round := 0; round < k; round++ {
		i := 0
		for i < round {
			if arith.IsCoprime(last, gpnum[i]) {
				i++
			} else {
				last++
				i = 0
			}
		}
		gpnum = append(gpnum, last)
	}
	return gpnum
}

// N returns the number of virtual counters the pool was parametrized with.
func (p *Pool) N() int64 { return p.n }

// M returns the number of physical counters actually allocated (Σ gpnum).
func (p *Pool) M() int64 { return p.m }

// K returns the number of groups.
func (p *Pool) K() int { return p.k }

func (p *Pool) physicalSlot(group int, v int64) int64 {
	return p.cumnum[group] + v%p.gpnum[group]
}

// PhysicalSlot exposes the group/virtual-index-to-physical-slot mapping so a
// sketch adapter can compute the pGlobal argument UniformUpdate and the group
// argument Est require. group must be in [0, K).
func (p *Pool) PhysicalSlot(group int, v int64) int64 {
	return p.physicalSlot(group, v)
}

// Update routes delta to virtual counter v: through the shadow channel while
// it hasn't overflowed, otherwise to the physical slot selected by the
// round-robin group dispatch. v must be in [0, N).
func (p *Pool) Update(v int64, delta int64) {
	if !p.isInitialized {
		panic("acs: Update called before InitParam")
	}
	if v < 0 || v >= p.n {
		panic(fmt.Sprintf("acs: Update: virtual counter %d out of range [0,%d)", v, p.n))
	}
	if p.useShadow && !p.shadow[v].Overflow() {
		p.shadow[v].Update(delta, p.shadowBits)
		p.updateCnt++
		return
	}
	group := int(p.updateCnt % uint64(p.k))
	p.counter[p.physicalSlot(group, v)] += delta
	p.updateCnt++
}

// UniformUpdate writes delta directly to global physical slot pGlobal,
// bypassing the group round-robin and update_cnt dispatch entirely. It is
// the caller's responsibility to supply a valid physical index; this is the
// escape hatch HashPipe's in-row eviction accounting needs (spec §9).
func (p *Pool) UniformUpdate(pGlobal int64, delta int64) {
	if !p.isInitialized {
		panic("acs: UniformUpdate called before InitParam")
	}
	if pGlobal < 0 || pGlobal >= p.m {
		panic(fmt.Sprintf("acs: UniformUpdate: physical slot %d out of range [0,%d)", pGlobal, p.m))
	}
	p.counter[pGlobal] += delta
}

// Est peeks at the current physical value backing virtual counter v through
// group g (0-based), without restoring anything. HashPipe's eviction logic
// uses this to compare the incumbent slot's live value against a challenger
// flow before deciding whether to swap.
func (p *Pool) Est(group int, v int64) int64 {
	if !p.isInitialized {
		panic("acs: Est called before InitParam")
	}
	return p.counter[p.physicalSlot(group, v)]
}

// Query returns the restored value for virtual counter v. Valid only after
// Restore has completed; calling it earlier is a contract violation.
func (p *Pool) Query(v int64) int64 {
	if !p.restoreComplete {
		panic("acs: Query called before Restore")
	}
	if v < 0 || v >= p.n {
		panic(fmt.Sprintf("acs: Query: virtual counter %d out of range [0,%d)", v, p.n))
	}
	return p.restoredValue[v]
}

// DumpResults writes every restored value as whitespace-separated integers,
// wrapping to a new line every 100 values, as spec §6 requires.
func (p *Pool) DumpResults(w interface{ Write([]byte) (int, error) }) error {
	for i := int64(0); i < p.n; i++ {
		s := fmt.Sprintf("%d ", p.restoredValue[i])
		if i%100 == 99 {
			s += "\n"
		}
		if _, err := w.Write([]byte(s)); err != nil {
			return err
		}
	}
	return nil
}

// Clear returns the pool to its post-InitParam state: counters, shadow
// counters and restoration state are all zeroed, but the group layout
// (gpnum/cumnum) is preserved so a new epoch can reuse it.
func (p *Pool) Clear() {
	if !p.isInitialized {
		return
	}
	for i := range p.counter {
		p.counter[i] = 0
	}
	p.updateCnt = 0
	if p.useShadow {
		p.shadow = make([]ShadowCounter, p.n)
	}
	if p.restoreInited {
		for i := range p.sharedCnt {
			p.sharedCnt[i] = 0
		}
		for i := range p.restoredValue {
			p.restoredValue[i] = 0
		}
		for i := range p.isRestored {
			p.isRestored[i] = false
		}
	}
	p.restoreComplete = false
}
