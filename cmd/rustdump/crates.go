package main

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/skdltmxn/rustdump/object"
	"github.com/spf13/cobra"
)

var (
	cratesVerbose bool
)

var cratesCmd = &cobra.Command{
	Use:   "crates <binary>",
	Short: "List the Rust crates symbols belong to",
	Long:  `List every crate that appears as the root of a demangled Rust symbol, with symbol counts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCrates,
}

func init() {
	cratesCmd.Flags().BoolVarP(&cratesVerbose, "verbose", "v", false, "show function and data counts per crate")
}

type crateCount struct {
	total int
	funcs int
	data  int
}

func runCrates(cmd *cobra.Command, args []string) error {
	f, symbols, err := openSymbols(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := demangleTable(cmd.Context(), symbols); err != nil {
		return err
	}

	counts := make(map[string]*crateCount)
	for sym := range symbols.Rust() {
		crate := sym.Crate()
		if crate == "" {
			continue
		}
		c, ok := counts[crate]
		if !ok {
			c = &crateCount{}
			counts[crate] = c
		}
		c.total++
		switch sym.Kind() {
		case object.SymbolKindFunction:
			c.funcs++
		case object.SymbolKindData:
			c.data++
		}
	}

	names := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
		return cmp.Or(cmp.Compare(counts[b].total, counts[a].total), cmp.Compare(a, b))
	})

	if cratesVerbose {
		fmt.Fprintf(output, "%-8s %-8s %-8s %s\n", "SYMBOLS", "FUNCS", "DATA", "CRATE")
		fmt.Fprintf(output, "%s\n", strings.Repeat("-", 80))
		for _, name := range names {
			c := counts[name]
			fmt.Fprintf(output, "%-8d %-8d %-8d %s\n", c.total, c.funcs, c.data, name)
		}
	} else {
		fmt.Fprintf(output, "%-8s %s\n", "SYMBOLS", "CRATE")
		fmt.Fprintf(output, "%s\n", strings.Repeat("-", 80))
		for _, name := range names {
			fmt.Fprintf(output, "%-8d %s\n", counts[name].total, name)
		}
	}

	fmt.Fprintf(output, "\nTotal: %d crates\n", len(names))
	return nil
}
