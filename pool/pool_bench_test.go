package pool

import (
	"testing"
	"unsafe"
)

func Benchmark_AllocateBytes(b *testing.B) {
	p, _ := New(Options{SlotSize: 32, SlotAlign: 8})
	defer p.Close()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := p.AllocateBytes(); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_AllocateDeallocatePair(b *testing.B) {
	p, _ := New(Options{SlotSize: 32, SlotAlign: 8})
	defer p.Close()

	// Pre-warm so the pair never touches activation paths.
	a, _ := p.AllocateBytes()
	p.DeallocateBytes(a.Ptr)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a, err := p.AllocateBytes()
		if err != nil {
			b.Fatal(err)
		}
		p.DeallocateBytesInSubPool(a.Ptr, a.SubPool)
	}
}

func Benchmark_Iterate(b *testing.B) {
	const n = 1 << 16

	p, _ := New(Options{SlotSize: 32, SlotAlign: 8})
	defer p.Close()

	ptrs := make([]unsafe.Pointer, 0, n)
	for i := 0; i < n; i++ {
		a, err := p.AllocateBytes()
		if err != nil {
			b.Fatal(err)
		}
		ptrs = append(ptrs, a.Ptr)
	}
	// Fragment: free every third slot so iteration has runs to skip.
	for i := 0; i < n; i += 3 {
		p.DeallocateBytes(ptrs[i])
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cnt := 0
		it := p.Iterate()
		for _, ok := it.Next(); ok; _, ok = it.Next() {
			cnt++
		}
		if cnt == 0 {
			b.Fatal("iterated nothing")
		}
	}
}

func Benchmark_IterateDense(b *testing.B) {
	const n = 1 << 16

	p, _ := New(Options{SlotSize: 32, SlotAlign: 8})
	defer p.Close()

	for i := 0; i < n; i++ {
		if _, err := p.AllocateBytes(); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it := p.Iterate()
		for _, ok := it.Next(); ok; _, ok = it.Next() {
		}
	}
}

func Benchmark_FindSubPool(b *testing.B) {
	p, _ := New(Options{SlotSize: 32, SlotAlign: 8})
	defer p.Close()

	var ptrs []unsafe.Pointer
	for i := 0; i < 1<<12; i++ {
		a, err := p.AllocateBytes()
		if err != nil {
			b.Fatal(err)
		}
		ptrs = append(ptrs, a.Ptr)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.FindSubPool(ptrs[i&(len(ptrs)-1)])
	}
}
