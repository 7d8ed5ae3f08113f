package pool

import (
	"unsafe"

	"github.com/mov-rax-rbx/kopool/internal/bitutil"
	"github.com/mov-rax-rbx/kopool/internal/hostmem"
)

const (
	// numSubPools is the number of geometric sub-pools, one per word bit.
	numSubPools = bitutil.WordBits

	// SubPoolNone is the sentinel sub-pool index meaning "no sub-pool".
	SubPoolNone = uint(numSubPools)

	// wordSize is the size of one machine word in bytes.
	wordSize = uintptr(bitutil.WordBits / 8)

	// minSlotSize is the smallest slot able to carry a free-run boundary
	// node (two machine words).
	minSlotSize = 2 * wordSize
)

// Options configures a pool. The zero value of a field selects its default.
type Options struct {
	// SlotSize is the size of every slot in bytes.
	// Must be at least two machine words and a multiple of SlotAlign.
	// Default: two machine words.
	SlotSize uintptr

	// SlotAlign is the alignment of every slot. Must be a power of two;
	// alignments below one machine word are raised to one word.
	// Default: one machine word.
	SlotAlign uintptr
}

// Allocation is the result of a successful AllocateBytes call.
type Allocation struct {
	SubPool uint
	Ptr     unsafe.Pointer
}

// ownerTail is the sentinel node embedded in each sub-pool record. It has
// the exact two-word layout of an in-slot tail node, so list operations can
// write through its address like any other tail: next holds the address of
// the first free run's head (0 when the sub-pool is full).
type ownerTail struct {
	prev uintptr
	next uintptr
}

// subPool is one geometric backing buffer plus its free-space bookkeeping.
type subPool struct {
	owner ownerTail // virtual list head; owner.next = first free run

	data hostmem.Region // capacity(i) * slotSize bytes, slot-aligned
	bits hostmem.Region // ceil(capacity(i)/W) words, 1 bit per slot

	base     uintptr // cached data.Base(); 0 when not activated
	freeBits []uint  // word view of bits; bit k set = slot k is free

	numUsed uint // live slots; cross-checked in instrumented builds
}

func (sp *subPool) ownerAddr() uintptr {
	return uintptr(unsafe.Pointer(&sp.owner))
}

// sortedPointer is one entry of the reverse-lookup index.
type sortedPointer struct {
	base uintptr
	sub  uint
}

// table holds all per-sub-pool records. It is allocated lazily on the first
// allocation so an unused pool costs one pointer.
type table struct {
	subs [numSubPools]subPool

	sorted    [numSubPools]sortedPointer
	sortedLen uint
}

// Pool is an iteratable object pool of fixed-size, fixed-alignment slots.
//
// A Pool must not be copied. It is not safe for concurrent use.
type Pool struct {
	opt Options

	// vacant has bit i set while sub-pool i has at least one free slot or
	// is not yet activated. nonempty has bit i set while sub-pool i holds
	// at least one live slot.
	vacant   uint
	nonempty uint

	// deferred is the index of the one empty sub-pool whose buffers are
	// retained to absorb churn, or SubPoolNone.
	deferred uint

	tab *table
}

// capacity returns the number of slots of sub-pool sub.
// Sub-pools 0 and 1 both hold two slots; from 2 onward the size doubles.
func capacity(sub uint) uint {
	if sub == 0 {
		return 2
	}
	return uint(1) << sub
}

// baseID returns the dense id of the first slot of sub-pool sub.
func baseID(sub uint) uint {
	if sub == 0 {
		return 0
	}
	return uint(1) << sub
}
