package object

import (
	"io"

	"github.com/blacktop/go-macho"
)

// n_type bits marking debugger (stab) entries.
const machoStabMask = 0xe0

func loadMachO(r io.ReaderAt) (*File, error) {
	mf, err := macho.NewFile(r)
	if err != nil {
		return nil, &FormatError{Format: FormatMachO, Message: "invalid header", Err: err}
	}
	defer mf.Close()

	var syms []*Symbol
	if mf.Symtab != nil {
		for _, s := range mf.Symtab.Syms {
			if s.Name == "" || uint8(s.Type)&machoStabMask != 0 {
				continue
			}
			syms = append(syms, newSymbol(s.Name, s.Value, 0, machoKind(mf, s)))
		}
	}

	return &File{
		format:  FormatMachO,
		arch:    mf.CPU.String(),
		symbols: newSymbolTable(syms),
	}, nil
}

func machoKind(mf *macho.File, s macho.Symbol) SymbolKind {
	if s.Sect == 0 {
		return SymbolKindUndefined
	}
	if int(s.Sect) > len(mf.Sections) {
		return SymbolKindOther
	}
	sec := mf.Sections[s.Sect-1]
	if sec.Seg == "__TEXT" && sec.Name == "__text" {
		return SymbolKindFunction
	}
	return SymbolKindData
}
