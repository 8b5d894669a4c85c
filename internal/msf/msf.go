// Package msf reads streams out of the MSF (Multi-Stream File) container
// used by Microsoft PDB files.
package msf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the signature of a PDB 7.0 ("BigMsf") container.
const Magic = "Microsoft C/C++ MSF 7.00\r\n\x1a\x44\x53\x00\x00\x00"

const superBlockSize = 56

// NilStreamSize marks a deleted stream in the directory.
const NilStreamSize = 0xFFFFFFFF

// StreamDBI is the fixed index of the debug information stream.
const StreamDBI = 3

var (
	ErrInvalidMagic       = errors.New("msf: invalid magic signature")
	ErrInvalidBlockSize   = errors.New("msf: invalid block size")
	ErrTruncatedFile      = errors.New("msf: file is truncated")
	ErrTruncatedDirectory = errors.New("msf: truncated stream directory")
	ErrInvalidStreamIndex = errors.New("msf: invalid stream index")
	ErrInvalidBlockIndex  = errors.New("msf: invalid block index")
)

type superBlock struct {
	Magic             [32]byte
	BlockSize         uint32
	FreeBlockMapBlock uint32
	NumBlocks         uint32
	NumDirectoryBytes uint32
	Unknown           uint32
	BlockMapAddr      uint32
}

func (sb *superBlock) validate() error {
	if string(sb.Magic[:]) != Magic {
		return ErrInvalidMagic
	}
	if sb.BlockSize < 512 || sb.BlockSize > 65536 || sb.BlockSize&(sb.BlockSize-1) != 0 {
		return ErrInvalidBlockSize
	}
	return nil
}

func (sb *superBlock) blockOffset(block uint32) int64 {
	return int64(block) * int64(sb.BlockSize)
}

// File is an opened MSF container. Streams are read on demand.
type File struct {
	data   io.ReaderAt
	sb     superBlock
	sizes  []uint32
	blocks [][]uint32
}

// NewFile reads the superblock and stream directory from r.
func NewFile(r io.ReaderAt) (*File, error) {
	buf := make([]byte, superBlockSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, ErrTruncatedFile
	}

	f := &File{data: r}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &f.sb); err != nil {
		return nil, ErrTruncatedFile
	}
	if err := f.sb.validate(); err != nil {
		return nil, err
	}
	if err := f.readDirectory(); err != nil {
		return nil, err
	}
	return f, nil
}

// readDirectory follows BlockMapAddr to the directory blocks and parses
// the stream size and block lists.
func (f *File) readDirectory() error {
	bs := f.sb.BlockSize
	numDirBlocks := (f.sb.NumDirectoryBytes + bs - 1) / bs
	if f.sb.NumDirectoryBytes < 4 || numDirBlocks > f.sb.NumBlocks {
		return ErrTruncatedDirectory
	}

	blockMap := make([]byte, numDirBlocks*4)
	if err := f.readBlocks(blockMap, []uint32{f.sb.BlockMapAddr}, uint32(len(blockMap)), true); err != nil {
		return fmt.Errorf("msf: failed to read block map: %w", err)
	}
	dirBlocks := make([]uint32, numDirBlocks)
	for i := range dirBlocks {
		dirBlocks[i] = binary.LittleEndian.Uint32(blockMap[i*4:])
	}

	dir := make([]byte, f.sb.NumDirectoryBytes)
	if err := f.readBlocks(dir, dirBlocks, f.sb.NumDirectoryBytes, false); err != nil {
		return fmt.Errorf("msf: failed to read directory: %w", err)
	}

	numStreams := binary.LittleEndian.Uint32(dir)
	off := 4
	if uint64(len(dir)-off) < uint64(numStreams)*4 {
		return ErrTruncatedDirectory
	}
	f.sizes = make([]uint32, numStreams)
	for i := range f.sizes {
		f.sizes[i] = binary.LittleEndian.Uint32(dir[off:])
		off += 4
	}

	f.blocks = make([][]uint32, numStreams)
	for i, size := range f.sizes {
		if size == NilStreamSize || size == 0 {
			continue
		}
		n := int((size + bs - 1) / bs)
		if len(dir)-off < n*4 {
			return ErrTruncatedDirectory
		}
		f.blocks[i] = make([]uint32, n)
		for j := range n {
			f.blocks[i][j] = binary.LittleEndian.Uint32(dir[off:])
			off += 4
		}
	}
	return nil
}

// readBlocks fills dst with size bytes taken from the given blocks in order.
// When contiguous is set, blocks[0] is the first of a run of adjacent blocks.
func (f *File) readBlocks(dst []byte, blocks []uint32, size uint32, contiguous bool) error {
	bs := f.sb.BlockSize
	for read, i := uint32(0), 0; read < size; i++ {
		var block uint32
		if contiguous {
			block = blocks[0] + uint32(i)
		} else {
			if i >= len(blocks) {
				return ErrTruncatedFile
			}
			block = blocks[i]
		}
		if block >= f.sb.NumBlocks {
			return fmt.Errorf("%w: %d >= %d", ErrInvalidBlockIndex, block, f.sb.NumBlocks)
		}

		n := min(bs, size-read)
		if _, err := f.data.ReadAt(dst[read:read+n], f.sb.blockOffset(block)); err != nil {
			return ErrTruncatedFile
		}
		read += n
	}
	return nil
}

// StreamExists reports whether index names a present, non-empty stream.
func (f *File) StreamExists(index uint32) bool {
	return int(index) < len(f.sizes) && f.sizes[index] != NilStreamSize && f.sizes[index] != 0
}

// ReadStream reads an entire stream into memory.
func (f *File) ReadStream(index uint32) ([]byte, error) {
	if int(index) >= len(f.sizes) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStreamIndex, index)
	}
	size := f.sizes[index]
	if size == NilStreamSize {
		return nil, fmt.Errorf("%w: stream %d is nil", ErrInvalidStreamIndex, index)
	}

	data := make([]byte, size)
	if err := f.readBlocks(data, f.blocks[index], size, false); err != nil {
		return nil, err
	}
	return data, nil
}
