package object

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// Format identifies the container format of a binary.
type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatMachO
	FormatPE
	FormatPDB
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "ELF"
	case FormatMachO:
		return "Mach-O"
	case FormatPE:
		return "PE"
	case FormatPDB:
		return "PDB"
	default:
		return "unknown"
	}
}

// File represents an opened binary.
// It is safe for concurrent read access after opening.
type File struct {
	format  Format
	arch    string
	symbols *SymbolTable

	closer io.Closer
	closed bool
	mu     sync.RWMutex
}

var (
	magicELF       = []byte("\x7fELF")
	magicMachO32LE = []byte{0xce, 0xfa, 0xed, 0xfe}
	magicMachO64LE = []byte{0xcf, 0xfa, 0xed, 0xfe}
	magicMachO32BE = []byte{0xfe, 0xed, 0xfa, 0xce}
	magicMachO64BE = []byte{0xfe, 0xed, 0xfa, 0xcf}
	magicFat       = []byte{0xca, 0xfe, 0xba, 0xbe}
	magicPE        = []byte("MZ")
	magicPDB       = []byte("Micr")
)

// Open opens a binary from the given path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("object: failed to open file: %w", err)
	}

	file, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	file.closer = f
	return file, nil
}

// NewFile reads a binary from an io.ReaderAt. The symbol table is loaded
// eagerly; demangling happens lazily per symbol.
func NewFile(r io.ReaderAt) (*File, error) {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return nil, ErrUnknownFormat
	}

	switch {
	case bytes.Equal(magic[:], magicELF):
		return loadELF(r)
	case bytes.Equal(magic[:], magicMachO32LE), bytes.Equal(magic[:], magicMachO64LE),
		bytes.Equal(magic[:], magicMachO32BE), bytes.Equal(magic[:], magicMachO64BE):
		return loadMachO(r)
	case bytes.Equal(magic[:], magicFat):
		return nil, ErrFatBinary
	case bytes.Equal(magic[:], magicPDB):
		return loadPDB(r)
	case bytes.HasPrefix(magic[:], magicPE):
		return loadPE(r)
	default:
		return nil, ErrUnknownFormat
	}
}

// Close releases resources associated with the file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Format returns the container format.
func (f *File) Format() Format { return f.format }

// Arch returns the target architecture as named by the container.
func (f *File) Arch() string { return f.arch }

// Symbols returns the symbol table.
func (f *File) Symbols() (*SymbolTable, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrFileClosed
	}
	return f.symbols, nil
}
