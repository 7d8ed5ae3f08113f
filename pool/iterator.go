package pool

import (
	"unsafe"

	"github.com/mov-rax-rbx/kopool/internal/bitutil"
)

// Iterator walks every live slot in ascending (sub-pool, slot) order,
// jumping over each free run in constant time.
//
// A mutation of the pool invalidates outstanding iterators. Instead of
// restarting, call FixedAfterAllocate or FixedAfterDeallocate exactly once
// immediately after the mutation; the returned iterator continues from the
// same logical position against the new pool state.
type Iterator struct {
	pool *Pool

	sub       uint
	idInSub   uint // ^uint(0) until the first sub-pool is entered
	remaining uint // sub-pools still to visit
}

const notEntered = ^uint(0)

// Iterate returns an iterator positioned before the first live slot.
func (p *Pool) Iterate() Iterator {
	return Iterator{pool: p, idInSub: notEntered, remaining: p.nonempty}
}

// Next returns the next live slot, or false when the traversal is done.
func (it *Iterator) Next() (unsafe.Pointer, bool) {
	p := it.pool
	slot := p.opt.SlotSize

	for {
		size := capacity(it.sub)
		if it.idInSub >= size {
			if it.remaining == 0 {
				return nil, false
			}
			it.sub = bitutil.TrailingZeros(it.remaining)
			it.remaining &^= uint(1) << it.sub
			it.idInSub = 0
			size = capacity(it.sub)
		}

		check(p.tab.subs[it.sub].base != 0, "iterating a released sub-pool")

		if p.isFree(it.sub, it.idInSub) {
			if it.idInSub+1 == size {
				it.idInSub++
				continue
			}

			if p.isFree(it.sub, it.idInSub+1) {
				// Head of a run of two or more: hop straight past its tail.
				tailLen := headToTailLen(p.slotAddr(it.idInSub, it.sub))
				check(tailLen%slot == 0, "free-run length not a slot multiple")
				it.idInSub += uint(tailLen/slot) + 1
				if it.idInSub >= size {
					continue
				}
			} else {
				// Length-1 run; the next slot is live.
				it.idInSub++
			}
		}

		addr := p.slotAddr(it.idInSub, it.sub)
		it.idInSub++
		return unsafe.Pointer(addr), true
	}
}

// fixedMask recomputes the sub-pools left to visit against the pool's
// current state: everything non-empty at an index past the cursor, plus the
// cursor's own sub-pool only while the iterator has not entered one yet.
func (it *Iterator) fixedMask() uint {
	rem := it.pool.nonempty &^ (uint(1)<<it.sub - 1)
	if it.idInSub != notEntered {
		rem &^= uint(1) << it.sub
	}
	return rem
}

// FixedAfterAllocate returns an iterator adjusted for a single allocation
// performed since this iterator's last use. Must be called exactly once,
// immediately after the allocation. The repaired iterator yields every live
// slot at or past its current position; the new slot is included exactly
// when it lies there.
func (it Iterator) FixedAfterAllocate() Iterator {
	out := it
	out.remaining = it.fixedMask()
	return out
}

// FixedAfterDeallocate returns an iterator adjusted for a single
// deallocation of ptr performed since this iterator's last use. Must be
// called exactly once, immediately after the deallocation.
func (it Iterator) FixedAfterDeallocate(ptr unsafe.Pointer) Iterator {
	p := it.pool
	slot := p.opt.SlotSize

	out := it
	out.remaining = it.fixedMask()

	// The deallocation may have released the cursor's sub-pool under the
	// deferred-release policy.
	if p.tab == nil || p.tab.subs[out.sub].base == 0 {
		out.idInSub = capacity(out.sub)
		return out
	}

	addr := uintptr(ptr)
	if !p.inSubPool(addr, out.sub) {
		return out
	}
	check(p.isFreeAddr(addr, out.sub), "repair for a slot that is not free")

	idx := p.slotIndex(addr, out.sub)
	switch {
	case idx == out.idInSub:
		left := p.leftFree(addr, out.sub)
		right := p.rightFree(addr, out.sub)

		switch {
		case left && right:
			// The freed slot merged into the run on its right; the old
			// right head's length word is still intact, so it tells how
			// far the merged run extends.
			if p.rightFree(addr+slot, out.sub) {
				tailLen := headToTailLen(addr + slot)
				check(tailLen%slot == 0, "free-run length not a slot multiple")
				out.idInSub += uint(tailLen/slot) + 2
			} else {
				out.idInSub += 2
			}
		case right:
			// The freed slot is now the head of the merged run; normal
			// skipping reads its fresh metadata.
		default:
			out.idInSub++
		}

	case idx+1 == out.idInSub && p.rightFree(addr, out.sub):
		// The cursor rests on a free slot that just lost its head role to
		// the freed slot on its left; its stale length word still reaches
		// the run's tail.
		if p.rightFree(addr+slot, out.sub) {
			tailLen := headToTailLen(addr + slot)
			check(tailLen%slot == 0, "free-run length not a slot multiple")
			out.idInSub += uint(tailLen/slot) + 1
		} else {
			out.idInSub++
		}
	}

	return out
}
