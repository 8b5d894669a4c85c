package object

import (
	"errors"
	"io"

	"github.com/skdltmxn/rustdump/internal/msf"
	"github.com/skdltmxn/rustdump/internal/stream"
)

// CodeView record kinds found in the PDB symbol record stream.
const (
	cvLData32 = 0x110c
	cvGData32 = 0x110d
	cvPub32   = 0x110e
)

// S_PUB32 flags
const (
	cvPubCode     = 0x1
	cvPubFunction = 0x2
)

const (
	dbiHeaderSize       = 64
	dbiSectionHdrStream = 5 // index within the optional debug header
	nilStreamIndex      = 0xFFFF
	sectionHeaderSize   = 40
)

var errNoDBI = errors.New("no DBI stream")

type dbiHeader struct {
	symRecordStream uint16
	machine         uint16
	sectionStream   uint16
}

func loadPDB(r io.ReaderAt) (*File, error) {
	mf, err := msf.NewFile(r)
	if err != nil {
		return nil, &FormatError{Format: FormatPDB, Message: "invalid container", Err: err}
	}
	if !mf.StreamExists(msf.StreamDBI) {
		return nil, &FormatError{Format: FormatPDB, Message: "missing stream", Err: errNoDBI}
	}

	data, err := mf.ReadStream(msf.StreamDBI)
	if err != nil {
		return nil, &FormatError{Format: FormatPDB, Message: "failed to read DBI stream", Err: err}
	}
	dbi, err := parseDBIHeader(data)
	if err != nil {
		return nil, &FormatError{Format: FormatPDB, Message: "invalid DBI stream", Err: err}
	}

	var sections []uint32
	if dbi.sectionStream != nilStreamIndex && mf.StreamExists(uint32(dbi.sectionStream)) {
		if data, err := mf.ReadStream(uint32(dbi.sectionStream)); err == nil {
			sections = parseSectionRVAs(data)
		}
	}

	var syms []*Symbol
	if dbi.symRecordStream != nilStreamIndex && mf.StreamExists(uint32(dbi.symRecordStream)) {
		data, err := mf.ReadStream(uint32(dbi.symRecordStream))
		if err != nil {
			return nil, &FormatError{Format: FormatPDB, Message: "failed to read symbol records", Err: err}
		}
		syms = parseSymbolRecords(data, sections)
	}

	return &File{
		format:  FormatPDB,
		arch:    peMachine(dbi.machine),
		symbols: newSymbolTable(syms),
	}, nil
}

// parseDBIHeader extracts the stream indices needed for public symbols.
func parseDBIHeader(data []byte) (dbiHeader, error) {
	var h dbiHeader
	if len(data) < dbiHeaderSize {
		return h, stream.ErrUnexpectedEOF
	}

	r := stream.NewReader(data)
	sig, _ := r.ReadU32()
	if int32(sig) != -1 {
		return h, errors.New("bad DBI version signature")
	}

	r.SetOffset(20)
	h.symRecordStream, _ = r.ReadU16()

	// Substream sizes, in file order, up to the optional debug header.
	r.SetOffset(24)
	var sizes [5]uint32
	for i := range sizes {
		sizes[i], _ = r.ReadU32()
	}
	r.Skip(4) // MFC type server index
	optSize, _ := r.ReadU32()
	ecSize, _ := r.ReadU32()
	r.Skip(2) // flags
	h.machine, _ = r.ReadU16()

	off := uint64(dbiHeaderSize) + uint64(ecSize)
	for _, s := range sizes {
		off += uint64(s)
	}

	h.sectionStream = nilStreamIndex
	if optSize >= 2*(dbiSectionHdrStream+1) && off+uint64(optSize) <= uint64(len(data)) {
		r.SetOffset(int(off) + 2*dbiSectionHdrStream)
		h.sectionStream, _ = r.ReadU16()
	}
	return h, nil
}

// parseSectionRVAs returns the virtual address of each image section.
func parseSectionRVAs(data []byte) []uint32 {
	r := stream.NewReader(data)
	var rvas []uint32
	for r.Remaining() >= sectionHeaderSize {
		r.Skip(12) // name, virtual size
		rva, _ := r.ReadU32()
		r.Skip(sectionHeaderSize - 16)
		rvas = append(rvas, rva)
	}
	return rvas
}

// parseSymbolRecords walks the symbol record stream. Truncated or unknown
// records end the walk or are skipped; what was read so far is kept.
func parseSymbolRecords(data []byte, sections []uint32) []*Symbol {
	r := stream.NewReader(data)
	var syms []*Symbol

	for r.Remaining() >= 4 {
		recLen, _ := r.ReadU16()
		if recLen < 2 {
			break
		}
		body, err := r.ReadBytesRef(int(recLen))
		if err != nil {
			break
		}

		rec := stream.NewReader(body)
		kind, _ := rec.ReadU16()
		switch kind {
		case cvPub32, cvGData32, cvLData32:
		default:
			continue
		}

		flags, err1 := rec.ReadU32()
		offset, err2 := rec.ReadU32()
		section, err3 := rec.ReadU16()
		name, err4 := rec.ReadCString()
		if err := errors.Join(err1, err2, err3, err4); err != nil || name == "" {
			continue
		}

		symKind := SymbolKindData
		if kind == cvPub32 && flags&(cvPubCode|cvPubFunction) != 0 {
			symKind = SymbolKindFunction
		}

		addr := uint64(offset)
		if section > 0 && int(section) <= len(sections) {
			addr += uint64(sections[section-1])
		}
		syms = append(syms, newSymbol(name, addr, 0, symKind))
	}
	return syms
}
