package main

import (
	"context"
	"fmt"

	"github.com/skdltmxn/rustdump/object"
)

// openSymbols opens a binary and returns its symbol table. The caller
// closes the returned file.
func openSymbols(path string) (*object.File, *object.SymbolTable, error) {
	f, err := object.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open binary: %w", err)
	}
	logger.Info("opened binary", "path", path, "format", f.Format(), "arch", f.Arch())

	symbols, err := f.Symbols()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to get symbols: %w", err)
	}
	return f, symbols, nil
}

// demangleTable warms the demangle cache of every symbol in parallel.
func demangleTable(ctx context.Context, symbols *object.SymbolTable) (object.Stats, error) {
	stats, err := object.DemangleAll(ctx, symbols.Slice(), workers, logger)
	if err != nil {
		return stats, fmt.Errorf("failed to demangle symbols: %w", err)
	}
	logger.Info("demangled symbols", "total", stats.Total, "rust", stats.Rust, "failed", stats.Failed)
	return stats, nil
}
