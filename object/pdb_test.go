package object

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skdltmxn/rustdump/internal/msf"
)

func symRecord(kind uint16, flags, offset uint32, section uint16, name string) []byte {
	body := binary.LittleEndian.AppendUint16(nil, kind)
	body = binary.LittleEndian.AppendUint32(body, flags)
	body = binary.LittleEndian.AppendUint32(body, offset)
	body = binary.LittleEndian.AppendUint16(body, section)
	body = append(body, name...)
	body = append(body, 0)
	for (len(body)+2)%4 != 0 {
		body = append(body, 0xf1)
	}
	return append(binary.LittleEndian.AppendUint16(nil, uint16(len(body))), body...)
}

func dbiStream(symStream, sectionStream uint16) []byte {
	h := make([]byte, dbiHeaderSize)
	binary.LittleEndian.PutUint32(h[0:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint16(h[12:], nilStreamIndex)
	binary.LittleEndian.PutUint16(h[16:], nilStreamIndex)
	binary.LittleEndian.PutUint16(h[20:], symStream)
	binary.LittleEndian.PutUint32(h[48:], 22) // optional debug header size
	binary.LittleEndian.PutUint16(h[58:], 0x8664)

	opt := make([]byte, 22)
	for i := 0; i < len(opt); i += 2 {
		binary.LittleEndian.PutUint16(opt[i:], nilStreamIndex)
	}
	binary.LittleEndian.PutUint16(opt[2*dbiSectionHdrStream:], sectionStream)
	return append(h, opt...)
}

func sectionHeaders(rvas ...uint32) []byte {
	var out []byte
	for _, rva := range rvas {
		sec := make([]byte, sectionHeaderSize)
		binary.LittleEndian.PutUint32(sec[12:], rva)
		out = append(out, sec...)
	}
	return out
}

func TestLoadPDB(t *testing.T) {
	var records []byte
	records = append(records, symRecord(cvPub32, cvPubFunction, 0x10, 1, symMain)...)
	records = append(records, symRecord(cvPub32, 0, 0x8, 2, "GLOBAL_COUNTER")...)
	records = append(records, symRecord(0x1125, 0, 0, 0, "procref")...) // skipped
	records = append(records, symRecord(cvGData32, 0, 0x20, 9, symIter)...)

	streams := [][]byte{
		nil,
		nil,
		nil,
		dbiStream(4, 5),
		records,
		sectionHeaders(0x1000, 0x3000),
	}
	f, err := NewFile(bytes.NewReader(buildMSF(512, streams)))
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	if f.Format() != FormatPDB || f.Arch() != "amd64" {
		t.Fatalf("Format(), Arch() = %v, %q", f.Format(), f.Arch())
	}

	table, err := f.Symbols()
	if err != nil {
		t.Fatalf("Symbols() error: %v", err)
	}

	type row struct {
		Name string
		Addr uint64
		Kind SymbolKind
	}
	var got []row
	for sym := range table.All() {
		got = append(got, row{sym.Name(), sym.Address(), sym.Kind()})
	}
	want := []row{
		{symMain, 0x1010, SymbolKindFunction},
		{"GLOBAL_COUNTER", 0x3008, SymbolKindData},
		{symIter, 0x20, SymbolKindData}, // section out of range keeps the raw offset
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}

	if sym, ok := table.FindByName("mycrate::main"); !ok || sym.Address() != 0x1010 {
		t.Fatalf("FindByName(mycrate::main) = %v, %v", sym, ok)
	}
}

func TestLoadPDBTruncatedRecords(t *testing.T) {
	records := symRecord(cvPub32, cvPubFunction, 0x10, 0, symMain)
	records = append(records, 0x40, 0x00, 0x0e, 0x11) // claims more than is left

	streams := [][]byte{nil, nil, nil, dbiStream(4, nilStreamIndex), records}
	f, err := NewFile(bytes.NewReader(buildMSF(512, streams)))
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	table, _ := f.Symbols()
	if table.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", table.Count())
	}
}

func TestLoadPDBErrors(t *testing.T) {
	badDBI := dbiStream(4, 5)
	badDBI[0] = 0

	cases := []struct {
		name    string
		streams [][]byte
	}{
		{"NoDBI", [][]byte{nil, nil, nil}},
		{"ShortDBI", [][]byte{nil, nil, nil, make([]byte, 10)}},
		{"BadSignature", [][]byte{nil, nil, nil, badDBI}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFile(bytes.NewReader(buildMSF(512, tc.streams)))
			var fe *FormatError
			if !errors.As(err, &fe) || fe.Format != FormatPDB {
				t.Fatalf("NewFile error = %v, want PDB *FormatError", err)
			}
		})
	}
}

// buildMSF lays out streams in a minimal MSF container with the
// given block size. Block 0 holds the superblock, blocks 1 and 2 the free block maps,
// block 3 the directory block map; the directory and stream data follow.
func buildMSF(blockSize uint32, streams [][]byte) []byte {
	bs := int(blockSize)
	blocksFor := func(n int) int { return (n + bs - 1) / bs }

	dirSize := 4 + 4*len(streams)
	for _, s := range streams {
		dirSize += 4 * blocksFor(len(s))
	}
	numDirBlocks := blocksFor(dirSize)

	next := uint32(4 + numDirBlocks)
	dir := binary.LittleEndian.AppendUint32(nil, uint32(len(streams)))
	for _, s := range streams {
		dir = binary.LittleEndian.AppendUint32(dir, uint32(len(s)))
	}
	var starts []uint32
	for _, s := range streams {
		starts = append(starts, next)
		for range blocksFor(len(s)) {
			dir = binary.LittleEndian.AppendUint32(dir, next)
			next++
		}
	}

	out := make([]byte, int(next)*bs)
	copy(out, msf.Magic)
	binary.LittleEndian.PutUint32(out[32:], blockSize)
	binary.LittleEndian.PutUint32(out[36:], 1)
	binary.LittleEndian.PutUint32(out[40:], next)
	binary.LittleEndian.PutUint32(out[44:], uint32(len(dir)))
	binary.LittleEndian.PutUint32(out[52:], 3)

	for i := range numDirBlocks {
		binary.LittleEndian.PutUint32(out[3*bs+4*i:], uint32(4+i))
	}
	copy(out[4*bs:], dir)
	for i, s := range streams {
		copy(out[int(starts[i])*bs:], s)
	}
	return out
}
