package pool

import "errors"

var (
	// ErrBadConfig indicates invalid construction options (alignment not a
	// power of two, slot too small to carry a free-run node, or a slot size
	// that would break per-slot alignment).
	ErrBadConfig = errors.New("pool: invalid configuration")

	// ErrOutOfMemory indicates that acquiring a backing buffer from the host
	// failed. The pool is left in its prior valid state.
	ErrOutOfMemory = errors.New("pool: backing buffer allocation failed")

	// ErrExhausted indicates that every sub-pool is full and no further
	// sub-pool index exists.
	ErrExhausted = errors.New("pool: sub-pool address space exhausted")

	// ErrPayloadHasPointers indicates a typed pool element type that the
	// garbage collector would need to scan. Slots live outside the Go heap,
	// so element types must be pointer-free.
	ErrPayloadHasPointers = errors.New("pool: element type contains pointers")
)
