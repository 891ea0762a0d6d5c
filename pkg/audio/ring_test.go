// ABOUTME: Tests for the byte ring
// ABOUTME: Verifies wraparound, capacity limits and bookkeeping counters
package audio

import (
	"bytes"
	"testing"
)

func TestRingWriteRead(t *testing.T) {
	r := NewRing(8)

	if n := r.Write([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Fatalf("expected 5 written, got %d", n)
	}
	out := make([]byte, 3)
	if n := r.Read(out); n != 3 {
		t.Fatalf("expected 3 read, got %d", n)
	}
	if !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Errorf("unexpected data %v", out)
	}

	// Wraps around the end of the backing slice
	if n := r.Write([]byte{6, 7, 8, 9, 10, 11}); n != 6 {
		t.Fatalf("expected 6 written, got %d", n)
	}
	if r.Free() != 0 {
		t.Errorf("expected full ring, free=%d", r.Free())
	}
	if n := r.Write([]byte{12}); n != 0 {
		t.Errorf("write into full ring should copy nothing, got %d", n)
	}

	all := make([]byte, 16)
	n := r.Read(all)
	if !bytes.Equal(all[:n], []byte{4, 5, 6, 7, 8, 9, 10, 11}) {
		t.Errorf("unexpected data after wrap %v", all[:n])
	}
	if r.Written() != 11 {
		t.Errorf("expected 11 total written, got %d", r.Written())
	}
}

func TestRingReset(t *testing.T) {
	r := NewRing(4)
	r.Write([]byte{1, 2})
	r.Reset()

	if r.Available() != 0 || r.Written() != 0 || r.Cursor() != 0 {
		t.Errorf("reset should clear state: avail=%d written=%d cursor=%d",
			r.Available(), r.Written(), r.Cursor())
	}
}
