package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/arena/buddy"
)

var (
	stressOps     int
	stressMaxSize int
	stressSeed    int64
	stressDump    bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressOps, "ops", 1_000_000, "Number of alloc/free operations")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 8192, "Upper bound of random request sizes")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Workload seed")
	cmd.Flags().BoolVar(&stressDump, "dump", false, "Dump the free-table condition when done")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a random alloc/free workload against a live arena",
		Long: `The stress command initializes an arena, drives a seeded random mix of
allocations and frees through it, and reports throughput. With --dump the
final free-table condition is printed before deinitialization.

Example:
  arenactl stress --ops 5000000
  arenactl stress --k 26 --small-pools --max-size 1024 --dump`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

func runStress() error {
	log := logger()

	cfg := arena.DefaultConfig
	cfg.Engine = buddy.Config{K: poolK}
	cfg.UsePools = pools
	if pools {
		// Keep the slabs proportionate for an interactive run.
		cfg.PoolCounts = [arena.NumPoolClasses]int{65536, 65536, 16384, 8192, 4096, 4096}
	}

	a := arena.New(&cfg)
	if err := a.Initialize(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Deinitialize()

	log.Debug("arena up", "k", poolK, "pools", pools)

	rng := rand.New(rand.NewSource(stressSeed))
	var (
		live      []unsafe.Pointer
		allocated int
		failed    int
		bytes     uint64
	)

	start := time.Now()
	for range stressOps {
		if rng.Intn(2) == 0 || len(live) == 0 {
			n := 1 + rng.Intn(stressMaxSize)
			ptr := a.Allocate(n)
			if ptr == nil {
				failed++
				continue
			}
			allocated++
			bytes += uint64(n)
			live = append(live, ptr)
		} else {
			victim := rng.Intn(len(live))
			a.Deallocate(live[victim])
			live[victim] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	for _, ptr := range live {
		a.Deallocate(ptr)
	}
	elapsed := time.Since(start)

	opsPerSec := float64(stressOps) / elapsed.Seconds()
	fmt.Printf("operations:   %s in %v (%.0f ops/s)\n",
		humanize.Comma(int64(stressOps)), elapsed.Round(time.Millisecond), opsPerSec)
	fmt.Printf("allocations:  %s ok, %s failed\n",
		humanize.Comma(int64(allocated)), humanize.Comma(int64(failed)))
	fmt.Printf("requested:    %s\n", humanize.IBytes(bytes))

	if stressDump {
		a.PrintCondition(os.Stdout)
	}
	return nil
}
