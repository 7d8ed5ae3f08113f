package pool

import (
	"unsafe"

	"github.com/mov-rax-rbx/kopool/internal/bitutil"
)

// New creates a pool handing out SlotSize-byte slots aligned to SlotAlign.
func New(opt Options) (*Pool, error) {
	if opt.SlotSize == 0 {
		opt.SlotSize = minSlotSize
	}
	if opt.SlotAlign == 0 {
		opt.SlotAlign = wordSize
	}
	if opt.SlotAlign&(opt.SlotAlign-1) != 0 {
		return nil, ErrBadConfig
	}
	if opt.SlotAlign < wordSize {
		// Boundary nodes are written as machine words into free slots.
		opt.SlotAlign = wordSize
	}
	if opt.SlotSize < minSlotSize || opt.SlotSize%opt.SlotAlign != 0 {
		return nil, ErrBadConfig
	}

	return &Pool{
		opt:      opt,
		vacant:   ^uint(0),
		deferred: SubPoolNone,
	}, nil
}

// SlotSize returns the configured slot size in bytes.
func (p *Pool) SlotSize() uintptr { return p.opt.SlotSize }

// SlotAlign returns the effective slot alignment in bytes.
func (p *Pool) SlotAlign() uintptr { return p.opt.SlotAlign }

// IsEmpty reports whether the pool holds no live slots.
func (p *Pool) IsEmpty() bool {
	return p.nonempty == 0
}

// AllocateBytes reserves one slot and returns its sub-pool and address.
// It fails only when acquiring a new backing buffer from the host fails, or
// when every sub-pool is full; the pool is unchanged on failure.
func (p *Pool) AllocateBytes() (Allocation, error) {
	if p.tab == nil {
		p.tab = &table{}
	}

	sub := bitutil.TrailingZeros(p.vacant)
	if sub >= numSubPools {
		return Allocation{}, ErrExhausted
	}

	sp := &p.tab.subs[sub]
	if sp.base == 0 {
		if err := p.activate(sub); err != nil {
			return Allocation{}, err
		}
		p.initFreeList(sub)
		p.insertSorted(sub)
	}

	if p.deferred == sub {
		p.deferred = SubPoolNone
	}
	p.nonempty |= uint(1) << sub
	sp.numUsed++

	addr := p.popFirstSlot(sub)
	return Allocation{SubPool: sub, Ptr: unsafe.Pointer(addr)}, nil
}

// deallocate returns the slot at addr in sub-pool sub to the free list and
// applies the deferred-release policy when the sub-pool drains.
func (p *Pool) deallocate(addr uintptr, sub uint) {
	check(!p.IsEmpty(), "deallocate on empty pool")
	check(p.inSubPool(addr, sub), "pointer outside its sub-pool")
	check(!p.isFreeAddr(addr, sub), "double free")

	sp := &p.tab.subs[sub]
	sp.numUsed--
	p.vacant |= uint(1) << sub

	p.pushSlot(addr, sub)
	p.setFree(sub, p.slotIndex(addr, sub), true)

	if !p.subPoolEmpty(sub) {
		return
	}
	p.nonempty &^= uint(1) << sub

	switch {
	case p.deferred == SubPoolNone:
		p.deferred = sub
	case sub < p.deferred:
		// The lower-indexed buffer is the one the allocation rule will
		// reuse first; keep it, release the other.
		p.removeSorted(p.deferred)
		_ = p.release(p.deferred)
		p.deferred = sub
	default:
		p.removeSorted(sub)
		_ = p.release(sub)
	}
}

// DeallocateBytes frees the slot at ptr, locating its sub-pool through the
// reverse-lookup index. ptr must be a live slot address returned by
// AllocateBytes; nil is a no-op.
func (p *Pool) DeallocateBytes(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	addr := uintptr(ptr)
	p.deallocate(addr, p.findSubPool(addr))
}

// DeallocateBytesInSubPool frees the slot at ptr, with the caller supplying
// the owning sub-pool to skip the reverse lookup. nil is a no-op.
func (p *Pool) DeallocateBytesInSubPool(ptr unsafe.Pointer, sub uint) {
	if ptr == nil {
		return
	}
	check(sub < numSubPools, "bad sub-pool index")
	p.deallocate(uintptr(ptr), sub)
}

// DeallocateBytesByID frees the live slot identified by its dense id.
func (p *Pool) DeallocateBytesByID(id uint) {
	sub := bitutil.Log2(id)
	p.deallocate(uintptr(p.IDToPtr(id)), sub)
}

// DeallocateAll releases every backing buffer, live slots included, and
// resets the pool to its pristine empty state. The lazily allocated table is
// kept.
func (p *Pool) DeallocateAll() {
	if p.tab == nil {
		return
	}

	for sub := uint(0); sub < numSubPools; sub++ {
		sp := &p.tab.subs[sub]
		if sp.base != 0 {
			sp.numUsed = 0
			_ = p.release(sub)
		}
	}

	p.vacant = ^uint(0)
	p.nonempty = 0
	p.deferred = SubPoolNone

	p.tab.sorted = [numSubPools]sortedPointer{}
	p.tab.sortedLen = 0
}

// Close releases all backing buffers and drops the table. The pool remains
// usable and behaves as freshly constructed. Close is idempotent.
func (p *Pool) Close() error {
	p.DeallocateAll()
	p.tab = nil
	return nil
}

// Move transfers ownership of all buffers and bookkeeping to a new handle
// and resets the receiver to the freshly constructed default state.
func (p *Pool) Move() *Pool {
	dst := &Pool{
		opt:      p.opt,
		vacant:   p.vacant,
		nonempty: p.nonempty,
		deferred: p.deferred,
		tab:      p.tab,
	}

	def, _ := New(Options{})
	*p = *def

	// Owner sentinels live inside the table, so the embedded list heads
	// move with it and stay valid.
	return dst
}

// IDToPtr returns the address of the slot with dense id. The id's sub-pool
// must be activated; the id need not be live.
func (p *Pool) IDToPtr(id uint) unsafe.Pointer {
	sub := bitutil.Log2(id)
	check(p.tab != nil && p.tab.subs[sub].base != 0, "id in unactivated sub-pool")
	check(id >= baseID(sub), "id below its sub-pool base")
	return unsafe.Pointer(p.slotAddr(id-baseID(sub), sub))
}

// SubPoolOfID returns the sub-pool index encoded in a dense id.
func (p *Pool) SubPoolOfID(id uint) uint {
	return bitutil.Log2(id)
}

// PtrToID returns the dense id of the slot at ptr within sub-pool sub.
func (p *Pool) PtrToID(ptr unsafe.Pointer, sub uint) uint {
	addr := uintptr(ptr)
	check(p.inSubPool(addr, sub), "pointer outside its sub-pool")
	return baseID(sub) + p.slotIndex(addr, sub)
}

// FindSubPool returns the index of the activated sub-pool whose buffer
// contains ptr. ptr must point into the pool.
func (p *Pool) FindSubPool(ptr unsafe.Pointer) uint {
	return p.findSubPool(uintptr(ptr))
}
