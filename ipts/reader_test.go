package ipts

import (
	"errors"
	"testing"
)

func TestReaderPrimitives(t *testing.T) {
	data := []byte{0x2a, 0xff, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0x00, 0x00, 0x80, 0x3f}
	r := NewReader(data)

	if v, err := r.U8(); err != nil || v != 0x2a {
		t.Fatalf("U8 = %d, %v", v, err)
	}
	if v, err := r.I8(); err != nil || v != -1 {
		t.Fatalf("I8 = %d, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x1234 {
		t.Fatalf("U16 = %#x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0x12345678 {
		t.Fatalf("U32 = %#x, %v", v, err)
	}
	if v, err := r.F32(); err != nil || v != 1.0 {
		t.Fatalf("F32 = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderBoundedReads(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.U32(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("U32 past end: err = %v, want ErrTruncated", err)
	}
	// A failed read must not advance the cursor.
	if r.Remaining() != 3 {
		t.Fatalf("Remaining after failed read = %d, want 3", r.Remaining())
	}
}

func TestReaderSubStrictContainment(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5, 6})
	child, err := r.Sub(4)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if child.Remaining() != 4 {
		t.Fatalf("child.Remaining() = %d, want 4", child.Remaining())
	}
	if r.Remaining() != 2 {
		t.Fatalf("parent.Remaining() after Sub = %d, want 2", r.Remaining())
	}
	// Exhausting the child must never touch the parent's remaining range.
	if err := child.Skip(4); err != nil {
		t.Fatalf("child.Skip: %v", err)
	}
	if _, err := child.U8(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("child read past its own end: err = %v, want ErrTruncated", err)
	}
	if v, err := r.U8(); err != nil || v != 5 {
		t.Fatalf("parent.U8() after child exhausted = %d, %v, want 5, nil", v, err)
	}
}

func TestReaderSubspanAliasesBuffer(t *testing.T) {
	data := []byte{10, 20, 30, 40}
	r := NewReader(data)
	span, err := r.Subspan(4)
	if err != nil {
		t.Fatalf("Subspan: %v", err)
	}
	data[0] = 99
	if span[0] != 99 {
		t.Fatalf("Subspan did not alias the root buffer: got %d, want 99", span[0])
	}
}

func TestReaderSkipNegativeOrOversized(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if err := r.Skip(-1); !errors.Is(err, ErrTruncated) {
		t.Fatalf("Skip(-1): err = %v, want ErrTruncated", err)
	}
	if err := r.Skip(3); !errors.Is(err, ErrTruncated) {
		t.Fatalf("Skip(3) on 2-byte buffer: err = %v, want ErrTruncated", err)
	}
}
