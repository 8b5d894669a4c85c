package main

import (
	"bufio"
	"fmt"

	"github.com/skdltmxn/rustdump/internal/demangle"
	"github.com/spf13/cobra"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Demangle symbols embedded in text read from stdin",
	Long: `Copy stdin to the output, replacing every Rust v0 mangled name found
in the text with its demangled form. Useful for disassembly listings,
linker errors and backtraces.`,
	Args: cobra.NoArgs,
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(output, demangle.DemangleBlob(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
