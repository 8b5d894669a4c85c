package stream

import (
	"errors"
	"testing"
)

func TestReaderSequential(t *testing.T) {
	r := NewReader([]byte("NvC3foo"))

	c, err := r.ReadByte()
	if err != nil || c != 'N' {
		t.Fatalf("ReadByte() = %q, %v; want 'N', nil", c, err)
	}
	if !r.Take('v') {
		t.Fatalf("Take('v') = false, want true")
	}
	if r.Take('x') {
		t.Fatalf("Take('x') = true, want false")
	}
	if r.Offset() != 2 {
		t.Fatalf("Offset() = %d, want 2", r.Offset())
	}
	if err := r.UnreadByte(); err != nil {
		t.Fatalf("UnreadByte() error: %v", err)
	}
	if c, _ := r.PeekByte(); c != 'v' {
		t.Fatalf("PeekByte() = %q, want 'v'", c)
	}
	if r.Remaining() != 6 {
		t.Fatalf("Remaining() = %d, want 6", r.Remaining())
	}
}

func TestReaderPosition(t *testing.T) {
	r := NewReader([]byte("abcdef"))

	if err := r.Skip(4); err != nil {
		t.Fatalf("Skip(4) error: %v", err)
	}
	if err := r.Skip(-3); err != nil {
		t.Fatalf("Skip(-3) error: %v", err)
	}
	if c, _ := r.ReadByte(); c != 'b' {
		t.Fatalf("ReadByte() after jumps = %q, want 'b'", c)
	}

	if err := r.SetOffset(6); err != nil {
		t.Fatalf("SetOffset(len) error: %v", err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadByte() at end error = %v, want %v", err, ErrUnexpectedEOF)
	}
	if err := r.SetOffset(7); !errors.Is(err, ErrOffsetRange) {
		t.Fatalf("SetOffset(7) error = %v, want %v", err, ErrOffsetRange)
	}
	if err := r.Skip(-10); !errors.Is(err, ErrNegativeOffset) {
		t.Fatalf("Skip(-10) error = %v, want %v", err, ErrNegativeOffset)
	}
	if r.Offset() != 6 {
		t.Fatalf("failed Skip moved the offset to %d", r.Offset())
	}
	if r.RemainingData() != nil {
		t.Fatalf("RemainingData() at end = %q, want nil", r.RemainingData())
	}
}

func TestReaderBytesRef(t *testing.T) {
	data := []byte("3fooE")
	r := NewReader(data)
	r.Take('3')

	got, err := r.ReadBytesRef(3)
	if err != nil {
		t.Fatalf("ReadBytesRef(3) error: %v", err)
	}
	if string(got) != "foo" {
		t.Fatalf("ReadBytesRef(3) = %q, want %q", got, "foo")
	}
	if &got[0] != &data[1] {
		t.Fatalf("ReadBytesRef copied the data")
	}
	if _, err := r.ReadBytesRef(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadBytesRef(2) error = %v, want %v", err, ErrUnexpectedEOF)
	}
	if _, err := r.ReadBytesRef(-1); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadBytesRef(-1) error = %v, want %v", err, ErrUnexpectedEOF)
	}
}

func TestUnreadAtStart(t *testing.T) {
	r := NewReader([]byte("x"))
	if err := r.UnreadByte(); !errors.Is(err, ErrUnreadAtStart) {
		t.Fatalf("UnreadByte() error = %v, want %v", err, ErrUnreadAtStart)
	}
}

func TestReaderRecords(t *testing.T) {
	r := NewReader([]byte{0x0e, 0x11, 0x78, 0x56, 0x34, 0x12, 'a', 'b', 0, 0xff, 0xff, 0xff})

	if v, err := r.ReadU16(); err != nil || v != 0x110e {
		t.Fatalf("ReadU16() = %#x, %v; want 0x110e", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0x12345678 {
		t.Fatalf("ReadU32() = %#x, %v; want 0x12345678", v, err)
	}
	if s, err := r.ReadCString(); err != nil || s != "ab" {
		t.Fatalf("ReadCString() = %q, %v; want \"ab\"", s, err)
	}
	if err := r.Skip(2); err != nil {
		t.Fatalf("Skip(2) error: %v", err)
	}
	if _, err := r.ReadU16(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadU16() at end error = %v, want %v", err, ErrUnexpectedEOF)
	}

	r = NewReader([]byte("abc"))
	if _, err := r.ReadCString(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadCString() unterminated error = %v, want %v", err, ErrUnexpectedEOF)
	}
	if r.Offset() != 0 {
		t.Fatalf("failed ReadCString moved the offset to %d", r.Offset())
	}
}
