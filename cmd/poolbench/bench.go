package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mov-rax-rbx/kopool/pool"
)

type section int

const (
	secPoolAllocate section = iota
	secPoolDeallocate
	secPoolIterate

	secSliceAppend
	secSlicePop
	secSliceIterate

	secSetInsert
	secSetErase
	secSetIterate

	secCount
)

var sectionNames = [secCount]string{
	"[Pool] Allocate",
	"[Pool] Deallocate",
	"[Pool] Iterate",

	"[Slice] Append",
	"[Slice] Pop",
	"[Slice] Iterate",

	"[Set] Insert",
	"[Set] Erase",
	"[Set] Iterate",
}

// bench accumulates wall time per section.
type bench struct {
	accum [secCount]time.Duration
	cnt   [secCount]int
}

func (b *bench) timeScope(sec section, fn func()) {
	start := time.Now()
	fn()
	b.accum[sec] += time.Since(start)
	b.cnt[sec]++
}

func (b *bench) print() {
	width := 0
	for _, name := range sectionNames {
		if len(name) > width {
			width = len(name)
		}
	}
	for sec := section(0); sec < secCount; sec++ {
		if b.cnt[sec] == 0 {
			continue
		}
		avg := float64(b.accum[sec]) / float64(b.cnt[sec]) / float64(time.Millisecond)
		fmt.Printf("%-*s %fms\n", width+1, sectionNames[sec]+":", avg)
	}
	fmt.Println("--------------------------")
}

var benchIters int

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchIters, "iterations", 1, "Bench rounds to run")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Time allocate/deallocate/iterate against a slice and a hash set",
		Long: `The bench command fills the pool, a pointer slice, and a hash set with the
same elements, then times allocation, deallocation, and full iteration on
each. Results are average wall time per timed call.

Example:
  poolbench bench
  poolbench bench -n 500000 --iterations 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

func runBench() error {
	tp, err := pool.NewTyped[benchData]()
	if err != nil {
		return err
	}
	defer tp.Close()

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	for round := 0; round < benchIters; round++ {
		if err := benchRound(tp, rng); err != nil {
			return err
		}
	}
	return nil
}

func benchRound(tp *pool.Typed[benchData], rng *rand.Rand) error {
	var b bench

	datas := make([]*benchData, 0, size)
	set := newOpenSet(size)

	fill := func() error {
		for i := 0; i < size; i++ {
			var elem *benchData
			var err error
			b.timeScope(secPoolAllocate, func() {
				elem, err = tp.Allocate(newBenchData())
			})
			if err != nil {
				return err
			}

			b.timeScope(secSliceAppend, func() {
				datas = append(datas, elem)
			})

			inserted := false
			b.timeScope(secSetInsert, func() {
				inserted = set.Insert(elem)
			})
			if !inserted {
				return fmt.Errorf("bench: duplicate slot handed out")
			}
		}
		return nil
	}

	iterateAll := func() error {
		var poolCnt, sliceCnt, setCnt uint64

		b.timeScope(secPoolIterate, func() {
			it := tp.Iterate()
			for e, ok := it.Next(); ok; e, ok = it.Next() {
				poolCnt += e.Cnt
			}
		})
		b.timeScope(secSliceIterate, func() {
			for _, e := range datas {
				sliceCnt += e.Cnt
			}
		})
		b.timeScope(secSetIterate, func() {
			set.Range(func(e *benchData) { setCnt += e.Cnt })
		})

		if poolCnt != sliceCnt || poolCnt != setCnt {
			return fmt.Errorf("bench: containers disagree (pool=%d slice=%d set=%d)",
				poolCnt, sliceCnt, setCnt)
		}
		return nil
	}

	if err := fill(); err != nil {
		return err
	}
	rng.Shuffle(len(datas), func(i, j int) { datas[i], datas[j] = datas[j], datas[i] })
	if err := iterateAll(); err != nil {
		return err
	}

	// Remove a random number of the shuffled elements, taken from the end of
	// the slice, from all three.
	numToRemove := rng.IntN(size + 1)
	printVerbose("removing %d of %d elements\n", numToRemove, size)
	for i := 0; i < numToRemove; i++ {
		elem := datas[len(datas)-1]

		b.timeScope(secPoolDeallocate, func() {
			tp.Deallocate(elem)
		})
		b.timeScope(secSetErase, func() {
			set.Erase(elem)
		})
		b.timeScope(secSlicePop, func() {
			datas = datas[:len(datas)-1]
		})
	}

	if err := iterateAll(); err != nil {
		return err
	}

	// Refill to full size and measure iteration over the mixed layout.
	for len(datas) < size {
		elem, err := tp.Allocate(newBenchData())
		if err != nil {
			return err
		}
		datas = append(datas, elem)
		set.Insert(elem)
	}
	if err := iterateAll(); err != nil {
		return err
	}

	for _, elem := range datas {
		tp.Deallocate(elem)
	}
	if !tp.IsEmpty() {
		fmt.Fprintln(os.Stderr, "bench: pool not empty after teardown")
	}
	tp.DeallocateAll()

	b.print()
	return nil
}
