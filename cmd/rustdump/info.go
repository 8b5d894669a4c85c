package main

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <binary>",
	Short: "Display binary and symbol statistics",
	Long: `Display general information about a binary including its format,
architecture, symbol counts and how many Rust symbols demangle cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, symbols, err := openSymbols(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stats, err := demangleTable(cmd.Context(), symbols)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "File: %s\n", path)
	fmt.Fprintf(output, "Format: %s\n", f.Format())
	fmt.Fprintf(output, "Architecture: %s\n", f.Arch())
	fmt.Fprintf(output, "Symbols: %d\n", stats.Total)
	fmt.Fprintf(output, "Rust Symbols: %d\n", stats.Rust)
	fmt.Fprintf(output, "Demangled: %d\n", stats.Demangled)
	fmt.Fprintf(output, "Failed: %d\n", stats.Failed)
	if stats.Rust > 0 {
		fmt.Fprintf(output, "Success Rate: %.1f%%\n", float64(stats.Demangled)*100/float64(stats.Rust))
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintf(output, "\nFailures:\n")
		msgs := slices.SortedFunc(maps.Keys(stats.Errors), func(a, b string) int {
			return cmp.Or(cmp.Compare(stats.Errors[b], stats.Errors[a]), cmp.Compare(a, b))
		})
		for _, msg := range msgs {
			fmt.Fprintf(output, "  %-8d %s\n", stats.Errors[msg], msg)
		}
	}

	return nil
}
