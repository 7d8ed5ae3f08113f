package pool

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// Randomized allocate/deallocate churn cross-checked against a reference
// model after every step. Seeds are fixed so failures reproduce.
func Test_RandomChurnAgainstModel(t *testing.T) {
	const steps = 4000

	rng := rand.New(rand.NewSource(42))
	p := newTestPool(t)

	live := make([]unsafe.Pointer, 0, steps)
	liveSet := make(map[unsafe.Pointer]bool, steps)

	for step := 0; step < steps; step++ {
		switch {
		case len(live) == 0 || rng.Intn(100) < 55:
			a, err := p.AllocateBytes()
			require.NoError(t, err)
			require.False(t, liveSet[a.Ptr], "step %d: slot handed out twice", step)
			live = append(live, a.Ptr)
			liveSet[a.Ptr] = true

			// Round-trip checks on the fresh slot.
			id := p.PtrToID(a.Ptr, a.SubPool)
			require.Equal(t, a.Ptr, p.IDToPtr(id), "step %d", step)
			require.Equal(t, a.SubPool, p.FindSubPool(a.Ptr), "step %d", step)

		case rng.Intn(1000) == 0:
			p.DeallocateAll()
			live = live[:0]
			liveSet = make(map[unsafe.Pointer]bool, steps)

		default:
			i := rng.Intn(len(live))
			ptr := live[i]
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			delete(liveSet, ptr)
			p.DeallocateBytes(ptr)
		}

		require.Equal(t, len(live) == 0, p.IsEmpty(), "step %d", step)

		if step%50 == 0 {
			require.NoError(t, p.checkConsistency(), "step %d", step)

			got := collect(p.Iterate())
			require.Len(t, got, len(live), "step %d", step)
			for _, ptr := range got {
				require.True(t, liveSet[ptr], "step %d: iterator yielded dead slot", step)
			}
		}
	}

	require.NoError(t, p.checkConsistency())
}

// Reverse lookup stays exact across activation, release, and reuse of
// sub-pools.
func Test_FindSubPoolAcrossChurn(t *testing.T) {
	const steps = 2500

	rng := rand.New(rand.NewSource(8))
	p := newTestPool(t)

	type slotRef struct {
		ptr unsafe.Pointer
		sub uint
	}
	var live []slotRef

	for step := 0; step < steps; step++ {
		if len(live) == 0 || rng.Intn(100) < 60 {
			a, err := p.AllocateBytes()
			require.NoError(t, err)
			live = append(live, slotRef{ptr: a.Ptr, sub: a.SubPool})
		} else {
			i := rng.Intn(len(live))
			p.DeallocateBytesInSubPool(live[i].ptr, live[i].sub)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}

		if step%25 == 0 {
			for _, ref := range live {
				require.Equal(t, ref.sub, p.FindSubPool(ref.ptr), "step %d", step)
			}
		}
	}
	requireConsistent(t, p)
}
