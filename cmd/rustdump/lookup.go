package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/skdltmxn/rustdump/object"
	"github.com/spf13/cobra"
)

var (
	lookupLimit int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <binary> <query>",
	Short: "Look up symbols by name or address",
	Long: `Look up symbols in a binary.

Query can be:
  - Symbol name: lookup app mycrate::main (raw or demangled, exact match first)
  - Address: lookup app 0x1234 (finds the symbol containing that address)

When no name matches exactly, demangled names are searched fuzzily and the
closest matches are shown.`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().IntVarP(&lookupLimit, "limit", "n", 10, "maximum number of fuzzy matches shown")
}

func runLookup(cmd *cobra.Command, args []string) error {
	query := args[1]

	f, symbols, err := openSymbols(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.HasPrefix(query, "0x") || strings.HasPrefix(query, "0X") {
		return lookupAddress(symbols, query)
	}

	if _, err := demangleTable(cmd.Context(), symbols); err != nil {
		return err
	}
	return lookupName(symbols, query)
}

func lookupName(symbols *object.SymbolTable, name string) error {
	found := 0
	for sym := range symbols.ByName(name) {
		printSymbolDetail(sym)
		found++
	}
	if found > 0 {
		fmt.Fprintf(output, "\nFound %d symbol(s)\n", found)
		return nil
	}

	all := symbols.Slice()
	candidates := make([]string, len(all))
	for i, sym := range all {
		candidates[i] = sym.DemangledName()
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranks)
	if len(ranks) == 0 {
		fmt.Fprintf(output, "No symbols found matching '%s'\n", name)
		return nil
	}

	logger.Debug("fuzzy matches", "query", name, "count", len(ranks))
	for i, rank := range ranks {
		if lookupLimit > 0 && i >= lookupLimit {
			break
		}
		printSymbolDetail(all[rank.OriginalIndex])
		found++
	}
	fmt.Fprintf(output, "\nShowing %d of %d fuzzy match(es)\n", found, len(ranks))
	return nil
}

func lookupAddress(symbols *object.SymbolTable, addrStr string) error {
	addr, err := strconv.ParseUint(addrStr[2:], 16, 64)
	if err != nil {
		return fmt.Errorf("invalid address: %s", addrStr)
	}

	sym, ok := symbols.FindByAddress(addr)
	if !ok {
		fmt.Fprintf(output, "No symbols found at address 0x%X\n", addr)
		return nil
	}

	printSymbolDetail(sym)
	if off := addr - sym.Address(); off != 0 {
		fmt.Fprintf(output, "Address 0x%X is %s+0x%X\n", addr, sym.DemangledName(), off)
	}
	return nil
}

func printSymbolDetail(sym *object.Symbol) {
	fmt.Fprintf(output, "Symbol:\n")
	fmt.Fprintf(output, "  Name: %s\n", sym.Name())
	demangled, err := sym.Demangle()
	if sym.IsRust() && err != nil {
		fmt.Fprintf(output, "  Demangle Error: %v\n", err)
	} else {
		fmt.Fprintf(output, "  Demangled: %s\n", demangled)
	}
	if crate := sym.Crate(); crate != "" {
		fmt.Fprintf(output, "  Crate: %s\n", crate)
	}
	fmt.Fprintf(output, "  Kind: %s\n", sym.Kind())
	if sym.Kind() != object.SymbolKindUndefined {
		fmt.Fprintf(output, "  Address: 0x%016X\n", sym.Address())
		if sym.Size() > 0 {
			fmt.Fprintf(output, "  Size: %d\n", sym.Size())
		}
	}

	fmt.Fprintln(output)
}
