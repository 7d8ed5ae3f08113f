package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/mov-rax-rbx/kopool/pool"
)

var fuzzRounds int

func init() {
	cmd := newFuzzCmd()
	cmd.Flags().IntVar(&fuzzRounds, "rounds", 0, "Rounds to run (0 = until interrupted)")
	rootCmd.AddCommand(cmd)
}

func newFuzzCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fuzz",
		Short: "Churn the pool with repaired iterators and cross-check every element",
		Long: `The fuzz command repeatedly fills the pool and drains it through repaired
iterators, once deallocating each yielded element and once deallocating
random victims mid-iteration. Visited counts are checked against the number
of allocated elements, or, when victims are removed, against a count
predicted from a hash set of visited elements; any mismatch aborts.

Example:
  poolbench fuzz
  poolbench fuzz -n 100000 --rounds 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuzz()
		},
	}
}

func runFuzz() error {
	tp, err := pool.NewTyped[benchData]()
	if err != nil {
		return err
	}
	defer tp.Close()

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	for round := 0; fuzzRounds == 0 || round < fuzzRounds; round++ {
		fmt.Printf("fuzz round %d\n", round)

		if err := fuzzDrainSelf(tp); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		if err := fuzzDrainRandom(tp, rng); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
	}
	return nil
}

// fuzzDrainSelf deallocates every element as the iterator yields it.
func fuzzDrainSelf(tp *pool.Typed[benchData]) error {
	for i := 0; i < size; i++ {
		if _, err := tp.Allocate(newBenchData()); err != nil {
			return err
		}
	}

	var cnt uint64
	it := tp.Iterate()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		cnt += e.Cnt
		if cnt > uint64(size) {
			return fmt.Errorf("drain-self: yielded more elements than allocated")
		}
		tp.Deallocate(e)
		it = it.FixedAfterDeallocate(e)
	}
	if cnt != uint64(size) {
		return fmt.Errorf("drain-self: visited %d of %d", cnt, size)
	}
	if !tp.IsEmpty() {
		return fmt.Errorf("drain-self: pool not empty")
	}

	tp.DeallocateAll()
	printVerbose("drain-self visited %d\n", cnt)
	return nil
}

// fuzzDrainRandom deallocates shuffled victims while iterating, tracking
// which victims were already visited to predict the final count.
func fuzzDrainRandom(tp *pool.Typed[benchData], rng *rand.Rand) error {
	datas := make([]*benchData, 0, size)
	for i := 0; i < size; i++ {
		e, err := tp.Allocate(newBenchData())
		if err != nil {
			return err
		}
		datas = append(datas, e)
	}
	rng.Shuffle(len(datas), func(i, j int) { datas[i], datas[j] = datas[j], datas[i] })

	visited := newOpenSet(size)
	var cnt, wantCnt uint64
	wantCnt = uint64(size)
	numRepairedNear := 0

	it := tp.Iterate()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		cnt += e.Cnt
		if cnt > uint64(size) {
			return fmt.Errorf("drain-random: yielded more elements than allocated")
		}
		visited.Insert(e)

		victim := datas[len(datas)-1]
		datas = datas[:len(datas)-1]

		// A victim the iterator has not reached yet will never be yielded.
		if !visited.Contains(victim) {
			wantCnt--
		}
		if victim == e {
			numRepairedNear++
		}

		tp.Deallocate(victim)
		it = it.FixedAfterDeallocate(victim)
	}

	if cnt != wantCnt {
		return fmt.Errorf("drain-random: visited %d, expected %d", cnt, wantCnt)
	}

	// Drain the survivors.
	var dangling uint64
	it = tp.Iterate()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		dangling += e.Cnt
		tp.Deallocate(e)
		it = it.FixedAfterDeallocate(e)
	}
	if wantCnt+dangling != uint64(size) {
		return fmt.Errorf("drain-random: %d visited + %d dangling != %d",
			wantCnt, dangling, size)
	}
	if !tp.IsEmpty() {
		return fmt.Errorf("drain-random: pool not empty")
	}

	tp.DeallocateAll()
	printVerbose("drain-random visited %d, dangling %d, near-cursor repairs %d\n",
		cnt, dangling, numRepairedNear)
	return nil
}
