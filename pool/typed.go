package pool

import (
	"reflect"
	"unsafe"
)

// Typed adapts the byte-level pool to a concrete element type: slots are
// sized and aligned for T, allocations return *T, and iteration yields *T.
//
// Slots live outside the Go heap, so T must not contain pointers of any
// kind (pointers, maps, slices, strings, channels, functions, interfaces);
// the garbage collector cannot see values stored in the pool. NewTyped
// rejects such types.
type Typed[T any] struct {
	pool *Pool
}

// NewTyped creates a typed pool for T.
func NewTyped[T any]() (*Typed[T], error) {
	var zeroT T
	tType := reflect.TypeOf(zeroT)
	if tType == nil {
		tType = reflect.TypeOf((*T)(nil)).Elem()
	}
	if typeHasPointers(tType) {
		return nil, ErrPayloadHasPointers
	}

	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)
	if size < minSlotSize {
		return nil, ErrBadConfig
	}

	p, err := New(Options{SlotSize: size, SlotAlign: align})
	if err != nil {
		return nil, err
	}
	return &Typed[T]{pool: p}, nil
}

// Pool exposes the underlying byte-level pool.
func (t *Typed[T]) Pool() *Pool { return t.pool }

// IsEmpty reports whether the pool holds no live elements.
func (t *Typed[T]) IsEmpty() bool { return t.pool.IsEmpty() }

// Allocate reserves a slot and initialises it with v.
func (t *Typed[T]) Allocate(v T) (*T, error) {
	a, err := t.pool.AllocateBytes()
	if err != nil {
		return nil, err
	}
	elem := (*T)(a.Ptr)
	*elem = v
	return elem, nil
}

// Deallocate frees the element at ptr. nil is a no-op.
func (t *Typed[T]) Deallocate(ptr *T) {
	if ptr == nil {
		return
	}
	t.pool.DeallocateBytes(unsafe.Pointer(ptr))
}

// DeallocateAll releases every element and backing buffer.
func (t *Typed[T]) DeallocateAll() { t.pool.DeallocateAll() }

// Close releases all resources.
func (t *Typed[T]) Close() error { return t.pool.Close() }

// Iterate returns a typed iterator over all live elements.
func (t *Typed[T]) Iterate() TypedIterator[T] {
	return TypedIterator[T]{it: t.pool.Iterate()}
}

// TypedIterator yields every live element exactly once in address order
// within each sub-pool. The repair rules of Iterator apply unchanged.
type TypedIterator[T any] struct {
	it Iterator
}

// Next returns the next live element, or false when done.
func (ti *TypedIterator[T]) Next() (*T, bool) {
	ptr, ok := ti.it.Next()
	if !ok {
		return nil, false
	}
	return (*T)(ptr), true
}

// FixedAfterAllocate returns an iterator adjusted for one allocation.
func (ti TypedIterator[T]) FixedAfterAllocate() TypedIterator[T] {
	return TypedIterator[T]{it: ti.it.FixedAfterAllocate()}
}

// FixedAfterDeallocate returns an iterator adjusted for the deallocation
// of ptr.
func (ti TypedIterator[T]) FixedAfterDeallocate(ptr *T) TypedIterator[T] {
	return TypedIterator[T]{it: ti.it.FixedAfterDeallocate(unsafe.Pointer(ptr))}
}

// typeHasPointers reports whether the garbage collector would need to scan
// values of t.
func typeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && typeHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, maps, slices, strings, channels, funcs, interfaces.
		return true
	}
}
