package pool

import "github.com/mov-rax-rbx/kopool/internal/bitutil"

// The reverse-lookup index maps an arbitrary pointer back to the sub-pool
// whose buffer contains it. It holds one (base address, sub-pool) entry per
// activated sub-pool, kept sorted by base address, so a lookup is a binary
// search over at most one word's worth of entries.

// insertSorted appends sub-pool sub's entry and bubbles it left into place.
func (p *Pool) insertSorted(sub uint) {
	t := p.tab
	check(t.sortedLen < uint(len(t.sorted)), "sorted index overflow")

	t.sorted[t.sortedLen] = sortedPointer{base: t.subs[sub].base, sub: sub}

	for i := t.sortedLen; i > 0 && t.sorted[i-1].base > t.sorted[i].base; i-- {
		t.sorted[i-1], t.sorted[i] = t.sorted[i], t.sorted[i-1]
	}
	t.sortedLen++
}

// removeSorted deletes sub-pool sub's entry, shifting the tail left.
func (p *Pool) removeSorted(sub uint) {
	t := p.tab

	i := p.sortedLookup(t.subs[sub].base)
	check(t.sorted[i].sub == sub, "sorted index out of sync")

	for ; i+1 < t.sortedLen; i++ {
		t.sorted[i], t.sorted[i+1] = t.sorted[i+1], t.sorted[i]
	}
	t.sorted[i] = sortedPointer{sub: SubPoolNone}
	t.sortedLen--
}

// sortedLookup returns the position of the entry owning addr: the largest
// index whose base is <= addr. The search widens the live prefix to a power
// of two and descends branchlessly; vacant probe slots have a zero base and
// steer the descent left.
func (p *Pool) sortedLookup(addr uintptr) uint {
	t := p.tab

	n := bitutil.RoundUpPow2(t.sortedLen)
	var off uint
	for n > 1 {
		half := n / 2
		e := &t.sorted[off+half]
		if e.base != 0 && addr >= e.base {
			off += half
		}
		n = half
	}
	return off
}

// findSubPool returns the sub-pool whose buffer contains addr.
// addr must lie inside some activated sub-pool.
func (p *Pool) findSubPool(addr uintptr) uint {
	sub := p.tab.sorted[p.sortedLookup(addr)].sub
	check(sub != SubPoolNone && p.inSubPool(addr, sub), "pointer outside every sub-pool")
	return sub
}
