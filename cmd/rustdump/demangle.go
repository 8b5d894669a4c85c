package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/skdltmxn/rustdump/internal/demangle"
	"github.com/spf13/cobra"
)

var (
	demangleStrict  bool
	demangleVerbose bool
)

var demangleCmd = &cobra.Command{
	Use:   "demangle [symbol...]",
	Short: "Demangle Rust v0 symbol names",
	Long: `Demangle Rust v0 symbol names given as arguments, or one per line on
stdin when no arguments are given.

Names that cannot be demangled are printed unchanged unless --strict is set.`,
	RunE: runDemangle,
}

func init() {
	demangleCmd.Flags().BoolVarP(&demangleStrict, "strict", "s", false, "fail on the first name that cannot be demangled")
	demangleCmd.Flags().BoolVarP(&demangleVerbose, "verbose", "v", false, "print the mangled name and any error next to the result")
}

func runDemangle(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		for _, name := range args {
			if err := demangleOne(name); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if err := demangleOne(name); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func demangleOne(name string) error {
	result, err := demangle.Demangle(name)
	if err != nil {
		if demangleStrict {
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.Debug("demangle failed", "symbol", name, "error", err)
		if demangleVerbose {
			fmt.Fprintf(output, "%s\t(%v)\n", name, err)
		} else {
			fmt.Fprintln(output, name)
		}
		return nil
	}

	if demangleVerbose {
		fmt.Fprintf(output, "%s\t%s\n", name, result)
	} else {
		fmt.Fprintln(output, result)
	}
	return nil
}
