package pool

import (
	"unsafe"

	"github.com/mov-rax-rbx/kopool/internal/bitutil"
	"github.com/mov-rax-rbx/kopool/internal/hostmem"
)

// slotIndex converts a slot address to its index within sub-pool sub.
func (p *Pool) slotIndex(addr uintptr, sub uint) uint {
	sp := &p.tab.subs[sub]
	off := addr - sp.base
	check(off%p.opt.SlotSize == 0, "pointer not on a slot boundary")
	return uint(off / p.opt.SlotSize)
}

// slotAddr converts a slot index within sub-pool sub to its address.
func (p *Pool) slotAddr(idx uint, sub uint) uintptr {
	return p.tab.subs[sub].base + uintptr(idx)*p.opt.SlotSize
}

// isFree reports whether slot idx of sub-pool sub is free.
func (p *Pool) isFree(sub, idx uint) bool {
	w := p.tab.subs[sub].freeBits[idx/bitutil.WordBits]
	return w>>(idx%bitutil.WordBits)&1 == 1
}

// setFree writes slot idx's free bit.
func (p *Pool) setFree(sub, idx uint, free bool) {
	w := &p.tab.subs[sub].freeBits[idx/bitutil.WordBits]
	bit := uint(1) << (idx % bitutil.WordBits)
	if free {
		*w |= bit
	} else {
		*w &^= bit
	}
}

func (p *Pool) isFreeAddr(addr uintptr, sub uint) bool {
	return p.isFree(sub, p.slotIndex(addr, sub))
}

// leftFree reports whether the slot immediately before addr exists and is
// free. The first slot has no left neighbour.
func (p *Pool) leftFree(addr uintptr, sub uint) bool {
	sp := &p.tab.subs[sub]
	if addr == sp.base {
		return false
	}
	return p.isFreeAddr(addr-p.opt.SlotSize, sub)
}

// rightFree reports whether the slot immediately after addr exists and is
// free. The last slot has no right neighbour.
func (p *Pool) rightFree(addr uintptr, sub uint) bool {
	sp := &p.tab.subs[sub]
	end := sp.base + uintptr(capacity(sub))*p.opt.SlotSize
	check(addr+p.opt.SlotSize <= end, "pointer past sub-pool end")
	if addr+p.opt.SlotSize == end {
		return false
	}
	return p.isFreeAddr(addr+p.opt.SlotSize, sub)
}

// inSubPool reports whether addr points into sub-pool sub's buffer.
func (p *Pool) inSubPool(addr uintptr, sub uint) bool {
	sp := &p.tab.subs[sub]
	if sp.base == 0 {
		return false
	}
	return addr >= sp.base && addr < sp.base+uintptr(capacity(sub))*p.opt.SlotSize
}

// activate acquires the data and bitmap buffers of sub-pool sub. Either both
// are acquired or neither is retained.
func (p *Pool) activate(sub uint) error {
	sp := &p.tab.subs[sub]
	size := uintptr(capacity(sub))

	if size > ^uintptr(0)/p.opt.SlotSize {
		return ErrOutOfMemory
	}

	data, err := hostmem.Alloc(size*p.opt.SlotSize, p.opt.SlotAlign)
	if err != nil {
		return ErrOutOfMemory
	}

	words := uintptr(bitutil.CeilDiv(capacity(sub), bitutil.WordBits))
	bits, err := hostmem.Alloc(words*wordSize, wordSize)
	if err != nil {
		_ = data.Release()
		return ErrOutOfMemory
	}

	sp.data = data
	sp.bits = bits
	sp.base = uintptr(data.Base())
	sp.freeBits = unsafe.Slice((*uint)(bits.Base()), words)
	return nil
}

// release returns both buffers of sub-pool sub to the host and clears its
// record. The sub-pool must hold no live slots.
func (p *Pool) release(sub uint) error {
	sp := &p.tab.subs[sub]
	check(sp.numUsed == 0, "releasing sub-pool with live slots")

	errData := sp.data.Release()
	errBits := sp.bits.Release()

	sp.base = 0
	sp.freeBits = nil
	sp.owner.next = 0
	sp.numUsed = 0

	if errData != nil {
		return errData
	}
	return errBits
}
