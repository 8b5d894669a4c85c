package object

import (
	"debug/elf"
	"errors"
	"io"
)

func loadELF(r io.ReaderAt) (*File, error) {
	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, &FormatError{Format: FormatELF, Message: "invalid header", Err: err}
	}
	defer ef.Close()

	static, err := ef.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, &FormatError{Format: FormatELF, Message: "invalid symbol table", Err: err}
	}
	dynamic, err := ef.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, &FormatError{Format: FormatELF, Message: "invalid dynamic symbol table", Err: err}
	}

	type key struct {
		name string
		addr uint64
	}
	seen := make(map[key]bool, len(static)+len(dynamic))

	var syms []*Symbol
	for _, list := range [][]elf.Symbol{static, dynamic} {
		for _, s := range list {
			if s.Name == "" || seen[key{s.Name, s.Value}] {
				continue
			}
			seen[key{s.Name, s.Value}] = true
			syms = append(syms, newSymbol(s.Name, s.Value, s.Size, elfKind(s)))
		}
	}

	return &File{
		format:  FormatELF,
		arch:    ef.Machine.String(),
		symbols: newSymbolTable(syms),
	}, nil
}

func elfKind(s elf.Symbol) SymbolKind {
	if s.Section == elf.SHN_UNDEF {
		return SymbolKindUndefined
	}
	switch elf.ST_TYPE(s.Info) {
	case elf.STT_FUNC:
		return SymbolKindFunction
	case elf.STT_OBJECT, elf.STT_TLS:
		return SymbolKindData
	default:
		return SymbolKindOther
	}
}
