package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skdltmxn/rustdump/internal/demangle"
	"github.com/spf13/cobra"
)

var (
	dumpFormat string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <symbol>",
	Short: "Dump the parsed node table of a mangled symbol",
	Long: `Parse a Rust v0 symbol and dump every slot of its node table.

Supported formats:
  - text: Human-readable text (default)
  - json: JSON format`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json)")
}

type SymbolDump struct {
	Symbol    string     `json:"symbol"`
	Demangled string     `json:"demangled"`
	Crate     string     `json:"crate,omitempty"`
	Nodes     []NodeDump `json:"nodes"`
}

type NodeDump struct {
	Slot   int    `json:"slot"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func runDump(cmd *cobra.Command, args []string) error {
	sym, err := demangle.Parse(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse symbol: %w", err)
	}

	dump := SymbolDump{
		Symbol:    args[0],
		Demangled: sym.Display(),
		Crate:     sym.Crate(),
	}
	for i := range sym.Len() {
		n := sym.Node(demangle.Slot(i))
		dump.Nodes = append(dump.Nodes, NodeDump{
			Slot:   i,
			Kind:   n.Kind().String(),
			Detail: describeNode(sym, n),
		})
	}

	switch dumpFormat {
	case "json":
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case "text":
		return dumpText(dump)
	default:
		return fmt.Errorf("unknown format: %s", dumpFormat)
	}
}

func dumpText(dump SymbolDump) error {
	fmt.Fprintf(output, "Symbol: %s\n", dump.Symbol)
	fmt.Fprintf(output, "Demangled: %s\n", dump.Demangled)
	if dump.Crate != "" {
		fmt.Fprintf(output, "Crate: %s\n", dump.Crate)
	}
	fmt.Fprintln(output)

	fmt.Fprintf(output, "%-5s %-13s %s\n", "SLOT", "KIND", "DETAIL")
	fmt.Fprintf(output, "%s\n", strings.Repeat("-", 80))
	for _, n := range dump.Nodes {
		fmt.Fprintf(output, "%-5d %-13s %s\n", n.Slot, n.Kind, n.Detail)
	}

	fmt.Fprintf(output, "\nTotal: %d nodes\n", len(dump.Nodes))
	return nil
}

func describeNode(sym *demangle.Symbol, n demangle.Node) string {
	switch n := n.(type) {
	case *demangle.Basic:
		return n.Name
	case *demangle.CratePath:
		return fmt.Sprintf("name=%s%s", n.Name, describeDisambiguator(n.Disambiguator))
	case *demangle.NestedPath:
		return fmt.Sprintf("ns=%s parent=%d name=%q%s", n.Namespace, n.Parent, n.Name, describeDisambiguator(n.Disambiguator))
	case *demangle.GenericPath:
		args := make([]string, len(n.Args))
		for i, g := range n.Args {
			args[i] = describeGeneric(sym, g)
		}
		return fmt.Sprintf("base=%d args=[%s]", n.Base, strings.Join(args, ", "))
	case *demangle.InherentImplPath:
		return fmt.Sprintf("impl=%d self=%d", n.Impl, n.SelfType)
	case *demangle.TraitPath:
		return fmt.Sprintf("impl=%s self=%d trait=%d", describeSlot(n.Impl), n.SelfType, n.Trait)
	case *demangle.ArrayType:
		return fmt.Sprintf("elem=%d len=%s", n.Elem, describeConst(sym, n.Len))
	case *demangle.SliceType:
		return fmt.Sprintf("elem=%d", n.Elem)
	case *demangle.TupleType:
		return fmt.Sprintf("elems=%v", n.Elems)
	case *demangle.RefType:
		if n.HasLifetime {
			return fmt.Sprintf("elem=%d lifetime=%d", n.Elem, n.Lifetime)
		}
		return fmt.Sprintf("elem=%d", n.Elem)
	case *demangle.PointerType:
		return fmt.Sprintf("elem=%d", n.Elem)
	case *demangle.FnSigType:
		var b strings.Builder
		if n.Unsafe {
			b.WriteString("unsafe ")
		}
		if n.ABI != "" {
			fmt.Fprintf(&b, "abi=%q ", n.ABI)
		}
		fmt.Fprintf(&b, "args=%v return=%s", n.Args, describeSlot(n.Return))
		return b.String()
	case *demangle.DynTraitType:
		bounds := make([]string, len(n.Bounds))
		for i, bound := range n.Bounds {
			bounds[i] = fmt.Sprintf("%d", bound.Trait)
			for _, bind := range bound.Bindings {
				bounds[i] += fmt.Sprintf(" %s=%d", bind.Name, bind.Type)
			}
		}
		return fmt.Sprintf("bounds=[%s] lifetime=%d", strings.Join(bounds, ", "), n.Lifetime)
	default:
		return ""
	}
}

func describeSlot(s demangle.Slot) string {
	if s == demangle.NoSlot {
		return "-"
	}
	return fmt.Sprintf("%d", s)
}

func describeDisambiguator(d demangle.Disambiguator) string {
	if !d.Valid {
		return ""
	}
	return fmt.Sprintf(" disambiguator=%d", d.Value)
}

func describeGeneric(sym *demangle.Symbol, g demangle.Generic) string {
	switch g.Kind {
	case demangle.GenericLifetime:
		return fmt.Sprintf("lifetime(%d)", g.Lifetime)
	case demangle.GenericConst:
		return "const(" + describeConst(sym, g.Const) + ")"
	default:
		return fmt.Sprintf("type(%d)", g.Type)
	}
}

func describeConst(sym *demangle.Symbol, c demangle.Const) string {
	if c.Placeholder {
		return "_"
	}
	digits := sym.Source()[c.Start:c.End]
	if c.Negative {
		return fmt.Sprintf("type=%d -0x%s", c.Type, digits)
	}
	return fmt.Sprintf("type=%d 0x%s", c.Type, digits)
}
