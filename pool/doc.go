// Package pool implements an iteratable object pool: an allocator for
// fixed-size, fixed-alignment slots that can also enumerate every live slot
// without an auxiliary container.
//
// # Overview
//
// Allocate, deallocate, and per-element iteration are all O(1) amortised.
// The trick is that the allocator's free-space bookkeeping doubles as a skip
// structure: free slots carry the metadata of the free run containing them
// in their own bytes, so a linear scan of the backing buffers can hop over
// any free run in one read.
//
// Storage grows as up to one sub-pool per word bit, geometrically sized
// (2, 2, 4, 8, ...). Live slot addresses are stable until the matching
// deallocation; nothing is ever moved or compacted. At most one fully empty
// sub-pool is retained speculatively to absorb churn.
//
// # Byte and typed surfaces
//
// The byte-level API hands out unsafe.Pointer slots:
//
//	p, err := pool.New(pool.Options{SlotSize: 32, SlotAlign: 8})
//	if err != nil {
//	    return err
//	}
//	a, err := p.AllocateBytes()
//	if err != nil {
//	    return err
//	}
//	// ... use a.Ptr ...
//	p.DeallocateBytes(a.Ptr)
//
// Typed wraps it for a concrete element type:
//
//	tp, err := pool.NewTyped[Particle]()
//	elem, err := tp.Allocate(Particle{X: 1})
//	it := tp.Iterate()
//	for e, ok := it.Next(); ok; e, ok = it.Next() {
//	    // ...
//	}
//
// Element types must be pointer-free: slots live outside the Go heap and
// the garbage collector never scans them.
//
// # Identifiers
//
// Every slot has a dense id encoding its sub-pool and position. Ids are
// single words, cheap to store, and convert to and from pointers in O(1)
// (IDToPtr, PtrToID). An arbitrary live pointer resolves to its sub-pool in
// O(log W) via FindSubPool.
//
// # Iteration and repair
//
// Iterate yields every live slot exactly once, in ascending address order
// within each sub-pool and ascending sub-pool order. Mutating the pool
// invalidates outstanding iterators; instead of restarting, call
// FixedAfterAllocate or FixedAfterDeallocate exactly once immediately after
// the mutation to obtain an iterator that continues from the same logical
// position.
//
// # Errors and contract violations
//
// AllocateBytes reports backing-buffer acquisition failure as
// ErrOutOfMemory, and a pool whose every sub-pool is full as ErrExhausted;
// both leave the pool untouched and are the only recoverable failures. Misuse — freeing an unknown pointer, double frees,
// ids of released sub-pools — is a programming bug: builds with the
// pooldebug tag panic at the violation, release builds leave behaviour
// undefined. Deallocating nil is a defined no-op.
//
// # Thread safety
//
// A Pool is not safe for concurrent use and performs no internal locking.
// Callers embedding it in a concurrent system must serialise access
// externally.
package pool
