// Package stream provides a byte cursor used both for mangled symbol text
// and for little-endian debug records.
package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Errors returned by Reader
var (
	ErrUnexpectedEOF  = errors.New("stream: unexpected end of data")
	ErrNegativeOffset = errors.New("stream: negative offset")
	ErrOffsetRange    = errors.New("stream: offset out of range")
	ErrUnreadAtStart  = errors.New("stream: unread at start of data")
)

// Reader is a sequential reader with explicit position control.
// It is not safe for concurrent use; each parse owns its own Reader.
type Reader struct {
	data   []byte
	offset int
}

var _ io.ByteScanner = (*Reader)(nil)

// NewReader creates a Reader from a byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, offset: 0}
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.offset
}

// SetOffset sets the absolute read position. An offset equal to the
// data length is valid and leaves the reader at the end.
func (r *Reader) SetOffset(offset int) error {
	if offset < 0 {
		return ErrNegativeOffset
	}
	if offset > len(r.data) {
		return ErrOffsetRange
	}
	r.offset = offset
	return nil
}

// Remaining returns the number of bytes remaining.
func (r *Reader) Remaining() int {
	if r.offset >= len(r.data) {
		return 0
	}
	return len(r.data) - r.offset
}

// Skip moves the read position by n bytes, which may be negative.
func (r *Reader) Skip(n int) error {
	return r.SetOffset(r.offset + n)
}

// ReadByte consumes the next byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

// UnreadByte steps back over the last consumed byte.
func (r *Reader) UnreadByte() error {
	if r.offset == 0 {
		return ErrUnreadAtStart
	}
	r.offset--
	return nil
}

// PeekByte returns the next byte without advancing the position.
func (r *Reader) PeekByte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	return r.data[r.offset], nil
}

// Take consumes the next byte only if it equals b.
func (r *Reader) Take(b byte) bool {
	if r.offset < len(r.data) && r.data[r.offset] == b {
		r.offset++
		return true
	}
	return false
}

// ReadBytesRef returns a reference to n bytes without copying.
// The returned slice is only valid as long as the underlying data.
func (r *Reader) ReadBytesRef(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	v := r.data[r.offset : r.offset+n]
	r.offset += n
	return v, nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytesRef(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytesRef(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadCString reads a NUL-terminated string and consumes the terminator.
func (r *Reader) ReadCString() (string, error) {
	rest := r.RemainingData()
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", ErrUnexpectedEOF
	}
	r.offset += n + 1
	return string(rest[:n]), nil
}

// Data returns the underlying byte slice.
func (r *Reader) Data() []byte {
	return r.data
}

// RemainingData returns the remaining unread data.
func (r *Reader) RemainingData() []byte {
	if r.offset >= len(r.data) {
		return nil
	}
	return r.data[r.offset:]
}
