package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	poolK   uint32
	pools   bool
)

var rootCmd = &cobra.Command{
	Use:   "arenactl",
	Short: "Inspect and exercise the arenakit allocator",
	Long: `arenactl drives the arenakit memory allocator from the command line:
it reports the configured limits, runs allocation workloads against a live
arena, and dumps the resulting free-table condition.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().Uint32Var(&poolK, "k", 24, "log2 of each engine's pool size")
	rootCmd.PersistentFlags().BoolVar(&pools, "small-pools", false, "Enable the fixed-size small-block pools")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logger returns a slog.Logger honouring the verbose flag.
func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
