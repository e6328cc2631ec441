package acs

import "github.com/hovering-clouds/acsengine/internal/arith"

// Restore reconstructs an estimate of every virtual counter's value from the
// aggregated physical array. It is one-shot per epoch: call Clear to start a
// fresh one. The pipeline is: shadow pre-pass, iterative large-counter
// extraction, small-counter estimation, shadow post-pass.
func (p *Pool) Restore() {
	if !p.isInitialized {
		panic("acs: Restore called before InitParam")
	}
	p.initRestore()
	if p.useShadow {
		p.preShadow()
	}

	threshold := p.hp.InitVal
	for i := 0; i < p.hp.IterNum; i++ {
		ids := p.getLargeID(threshold, p.hp.GetMethod)
		if len(ids) == 0 {
			continue
		}
		p.restoreLarge(ids, p.hp.Clip)
		switch p.hp.GetMethod {
		case ThetaMethod:
			if p.hp.StepVal != 0 {
				threshold /= p.hp.StepVal
			}
		case RankMethod:
			threshold += p.hp.StepVal
		}
	}

	p.restoreSmall()
	if p.useShadow {
		p.postShadow()
	}
	p.restoreComplete = true
}

// initRestore allocates and seeds the restoration-only arrays.
func (p *Pool) initRestore() {
	p.restoreInited = true
	p.unrestored = p.n
	p.sharedCnt = make([]int64, p.m)
	p.restoredValue = make([]int64, p.n)
	p.isRestored = make([]bool, p.n)

	for i := 0; i < p.k; i++ {
		inc := p.n / p.gpnum[i]
		num1 := p.n % p.gpnum[i]
		for j := p.cumnum[i]; j < p.cumnum[i]+num1; j++ {
			p.sharedCnt[j] = inc + 1
		}
		for j := p.cumnum[i] + num1; j < p.cumnum[i+1]; j++ {
			p.sharedCnt[j] = inc
		}
	}
}

// preShadow removes every virtual counter whose shadow never overflowed from
// the residual problem before the CRT machinery runs.
func (p *Pool) preShadow() {
	for v := int64(0); v < p.n; v++ {
		if p.shadow[v].Overflow() {
			continue
		}
		p.restoredValue[v] = p.shadow[v].Query()
		p.isRestored[v] = true
		p.unrestored--
		for i := 0; i < p.k; i++ {
			p.sharedCnt[p.physicalSlot(i, v)]--
		}
	}
}

// postShadow adds back the 2^L of mass the shadow channel absorbed before
// overflowing into the shared pool, for every virtual counter that did
// overflow.
func (p *Pool) postShadow() {
	addVal := int64(1) << p.shadowBits
	for v := int64(0); v < p.n; v++ {
		if p.shadow[v].Overflow() {
			p.restoredValue[v] += addVal
		}
	}
}

func sumInt64(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}

// getLargeID enumerates, with high probability, every still-unrestored
// virtual counter whose value is likely to exceed the current threshold,
// using a CRT lift across groups to avoid an O(N*K) scan.
func (p *Pool) getLargeID(tr float64, method GetIDMethod) []int64 {
	if p.unrestored == 0 {
		return nil
	}
	sum := sumInt64(p.counter)
	mu := float64(sum) / float64(p.unrestored)

	thresholdFor := func(group int) int64 {
		if method == ThetaMethod {
			return int64(tr*float64(sum)/float64(p.k) + (mu/float64(p.k))*(float64(p.unrestored)/float64(p.gpnum[group])))
		}
		lo, hi := p.cumnum[group], p.cumnum[group+1]
		rank := int(tr * float64(p.gpnum[group]))
		return arith.NthLargest(p.counter[lo:hi], rank)
	}

	var lastIDs []int64
	thre0 := thresholdFor(0)
	for j := p.cumnum[0]; j < p.cumnum[1]; j++ {
		if p.counter[j] >= thre0 {
			lastIDs = append(lastIDs, j-p.cumnum[0])
		}
	}

	mod := p.gpnum[0]
	i := 1
	for i < p.k {
		g := p.gpnum[i]
		gInv := arith.MulInverse(g, mod)
		modInv := arith.MulInverse(mod, g)
		thre := thresholdFor(i)

		var ids []int64
		for j := p.cumnum[i]; j < p.cumnum[i+1]; j++ {
			if p.counter[j] < thre {
				continue
			}
			gpID := j - p.cumnum[i]
			for _, r := range lastIDs {
				newID := (g*gInv*r + mod*modInv*gpID) % (mod * g)
				if newID < p.n {
					ids = append(ids, newID)
				}
			}
		}
		lastIDs = ids
		i++
		if mod > p.n/g {
			break
		}
		mod *= g
	}

	// verification mode for any remaining groups
	for i < p.k {
		g := p.gpnum[i]
		thre := thresholdFor(i)
		var ids []int64
		for _, v := range lastIDs {
			if p.counter[p.cumnum[i]+v%g] >= thre {
				ids = append(ids, v)
			}
		}
		lastIDs = ids
		i++
	}

	// drop candidates already restored
	out := lastIDs[:0]
	for _, v := range lastIDs {
		if !p.isRestored[v] {
			out = append(out, v)
		}
	}
	return out
}

// restoreLarge estimates and commits the value of every candidate in ids,
// then subtracts their contribution from the residual physical array.
func (p *Pool) restoreLarge(ids []int64, clip int) {
	slots := make(map[int64]int64)
	for i := 0; i < p.k; i++ {
		for _, v := range ids {
			slots[p.physicalSlot(i, v)]++
		}
	}

	v := sumInt64(p.counter)
	var sumLarge, numSlots int64
	for slot, times := range slots {
		sumLarge += p.counter[slot]
		numSlots += p.sharedCnt[slot] - times
	}
	if sumLarge <= 0 {
		return
	}

	k := float64(p.k)
	unrestored := float64(p.unrestored)
	s := (float64(sumLarge) - (float64(numSlots)/k)*float64(v)/unrestored) /
		(1 - float64(numSlots)/(unrestored*k))

	var muSmall float64
	if int64(len(ids)) != p.unrestored {
		muSmall = (float64(v) - s) / (float64(p.unrestored-int64(len(ids))) * k)
	}

	for _, id := range ids {
		estimates := make([]float64, p.k)
		for i := 0; i < p.k; i++ {
			slot := p.physicalSlot(i, id)
			times := slots[slot]
			pure := float64(p.counter[slot]) - muSmall*float64(p.sharedCnt[slot]-times)
			estimates[i] = pure / float64(times)
		}
		sortFloat64(estimates)
		var total float64
		for i := clip; i < p.k-clip; i++ {
			total += estimates[i]
		}
		p.restoredValue[id] = int64(total * k / (k - 2*float64(clip)))
	}

	for _, id := range ids {
		p.unrestored--
		p.isRestored[id] = true
		for i := 0; i < p.k; i++ {
			slot := p.physicalSlot(i, id)
			dec := p.restoredValue[id] / int64(p.k)
			if p.counter[slot] < dec {
				p.counter[slot] = 0
			} else {
				p.counter[slot] -= dec
			}
			p.sharedCnt[slot]--
		}
	}
}

// restoreSmall estimates every still-unrestored virtual counter from the
// residual physical values and the mean small-flow mass.
func (p *Pool) restoreSmall() {
	if p.unrestored == 0 {
		return
	}
	sum := sumInt64(p.counter)
	mu := float64(sum) / float64(p.unrestored*int64(p.k))

	for v := int64(0); v < p.n; v++ {
		if p.isRestored[v] {
			continue
		}
		var tmp float64
		minCnt := p.counter[p.physicalSlot(0, v)]
		for j := 0; j < p.k; j++ {
			slot := p.physicalSlot(j, v)
			tmp += float64(p.counter[slot]) - float64(p.sharedCnt[slot]-1)*mu
			if p.counter[slot] < minCnt {
				minCnt = p.counter[slot]
			}
		}
		est := int64(tmp)
		if est < 0 {
			est = 0
		}
		upperBound := int64(p.k) * minCnt
		if est > upperBound {
			est = upperBound
		}
		p.restoredValue[v] = est
		p.isRestored[v] = true
		p.unrestored--
	}
}

func sortFloat64(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
