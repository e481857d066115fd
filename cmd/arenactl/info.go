package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/arena/buddy"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show allocator configuration and limits",
		Long: `The info command reports the allocator's compile-time constants and the
limits implied by the selected pool size, without mapping any memory.

Example:
  arenactl info
  arenactl info --k 29 --small-pools`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
}

func runInfo() error {
	cfg := arena.DefaultConfig
	cfg.Engine = buddy.Config{K: poolK}
	cfg.UsePools = pools

	fmt.Printf("Engine pool size:    %s (K=%d), two engines\n",
		humanize.IBytes(uint64(1)<<cfg.Engine.K), cfg.Engine.K)
	fmt.Printf("Alignment:           %d bytes\n", buddy.Alignment)
	fmt.Printf("Minimum block:       %d bytes\n", buddy.MinAllocationSize)
	fmt.Printf("Maximum allocation:  %s (%d bytes)\n",
		humanize.IBytes(uint64(cfg.Engine.MaxSize())), cfg.Engine.MaxSize())

	if cfg.UsePools {
		fmt.Println("Small pools:         enabled")
		sizes := [arena.NumPoolClasses]int{32, 64, 128, 256, 512, 1024}
		for c, count := range cfg.PoolCounts {
			fmt.Printf("  P%d: %5d B x %9d blocks = %s\n", c, sizes[c], count,
				humanize.IBytes(uint64(sizes[c])*uint64(count)))
		}
	} else {
		fmt.Println("Small pools:         disabled")
	}
	return nil
}
