package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	outputFile string
	output     io.Writer
	logLevel   = logLevelFlag{level: slog.LevelWarn}
	logger     = slog.New(slog.DiscardHandler)
	workers    int
)

// logLevelFlag adapts slog.Level to pflag.Value.
type logLevelFlag struct {
	level slog.Level
}

var _ pflag.Value = (*logLevelFlag)(nil)

func (f *logLevelFlag) String() string { return strings.ToLower(f.level.String()) }
func (f *logLevelFlag) Set(s string) error {
	return f.level.UnmarshalText([]byte(s))
}
func (f *logLevelFlag) Type() string { return "level" }

var rootCmd = &cobra.Command{
	Use:   "rustdump",
	Short: "Rust symbol demangler and binary symbol viewer",
	Long: `rustdump demangles Rust v0 symbol names.

It can demangle names given on the command line or on stdin, rewrite
mangled names inside arbitrary text, and list, search and summarize
the symbols of ELF, Mach-O and PE binaries and PDB files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel.level}))

		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = cmd.OutOrStdout()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().Var(&logLevel, "log-level", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "j", runtime.GOMAXPROCS(0), "number of demangling workers")

	rootCmd.AddCommand(demangleCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(cratesCmd)
}
