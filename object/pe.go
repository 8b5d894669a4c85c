package object

import (
	"debug/pe"
	"fmt"
	"io"
)

func loadPE(r io.ReaderAt) (*File, error) {
	pf, err := pe.NewFile(r)
	if err != nil {
		return nil, &FormatError{Format: FormatPE, Message: "invalid header", Err: err}
	}
	defer pf.Close()

	var imageBase uint64
	switch oh := pf.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase = uint64(oh.ImageBase)
	case *pe.OptionalHeader64:
		imageBase = oh.ImageBase
	}

	var syms []*Symbol
	for _, s := range pf.Symbols {
		if s.Name == "" {
			continue
		}
		kind := SymbolKindUndefined
		addr := uint64(s.Value)
		if s.SectionNumber > 0 && int(s.SectionNumber) <= len(pf.Sections) {
			sec := pf.Sections[s.SectionNumber-1]
			addr += imageBase + uint64(sec.VirtualAddress)
			kind = SymbolKindData
			if sec.Characteristics&pe.IMAGE_SCN_CNT_CODE != 0 {
				kind = SymbolKindFunction
			}
		} else if s.SectionNumber < 0 {
			kind = SymbolKindOther
		}
		syms = append(syms, newSymbol(s.Name, addr, 0, kind))
	}

	return &File{
		format:  FormatPE,
		arch:    peMachine(pf.Machine),
		symbols: newSymbolTable(syms),
	}, nil
}

func peMachine(m uint16) string {
	switch m {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "i386"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "amd64"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "arm64"
	case pe.IMAGE_FILE_MACHINE_ARMNT:
		return "arm"
	default:
		return fmt.Sprintf("machine(0x%04x)", m)
	}
}
