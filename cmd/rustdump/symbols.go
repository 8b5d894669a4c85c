package main

import (
	"fmt"
	"strings"

	"github.com/skdltmxn/rustdump/object"
	"github.com/spf13/cobra"
)

var (
	symbolsRust      bool
	symbolsKind      string
	symbolsDemangled bool
	symbolsLimit     int
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <binary>",
	Short: "List symbols in a binary",
	Long: `List symbols from an ELF, Mach-O or PE binary, or a PDB file.

By default, all symbols are shown. Use --rust to keep only v0 mangled names.
Use --kind to filter by symbol kind (func, data, undef, other).`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().BoolVarP(&symbolsRust, "rust", "r", false, "show only Rust v0 symbols")
	symbolsCmd.Flags().StringVarP(&symbolsKind, "kind", "k", "", "filter by symbol kind (func, data, undef, other)")
	symbolsCmd.Flags().BoolVarP(&symbolsDemangled, "demangle", "d", false, "show demangled names")
	symbolsCmd.Flags().IntVarP(&symbolsLimit, "limit", "n", 0, "limit number of symbols shown (0 = unlimited)")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	var kindFilter object.SymbolKind
	hasKindFilter := false
	if symbolsKind != "" {
		k, ok := object.ParseSymbolKind(strings.ToLower(symbolsKind))
		if !ok {
			return fmt.Errorf("unknown symbol kind: %s", symbolsKind)
		}
		kindFilter, hasKindFilter = k, true
	}

	f, symbols, err := openSymbols(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if symbolsDemangled {
		if _, err := demangleTable(cmd.Context(), symbols); err != nil {
			return err
		}
	}

	seq := symbols.All()
	if symbolsRust {
		seq = symbols.Rust()
	}

	fmt.Fprintf(output, "%-6s %-18s %-8s %s\n", "KIND", "ADDRESS", "SIZE", "NAME")
	fmt.Fprintf(output, "%s\n", strings.Repeat("-", 90))

	count := 0
	for sym := range seq {
		if hasKindFilter && sym.Kind() != kindFilter {
			continue
		}
		printSymbol(sym)
		count++
		if symbolsLimit > 0 && count >= symbolsLimit {
			break
		}
	}

	fmt.Fprintf(output, "\nTotal: %d symbols\n", count)
	return nil
}

func printSymbol(sym *object.Symbol) {
	name := sym.Name()
	if symbolsDemangled {
		name = sym.DemangledName()
	}

	if sym.Kind() == object.SymbolKindUndefined {
		fmt.Fprintf(output, "%-6s %-18s %-8s %s\n", sym.Kind(), "-", "-", name)
		return
	}
	fmt.Fprintf(output, "%-6s 0x%016X %-8d %s\n", sym.Kind(), sym.Address(), sym.Size(), name)
}
