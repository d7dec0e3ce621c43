package term

import (
	"bytes"
	"testing"
)

func TestRingAppendWithinCapacity(t *testing.T) {
	r := NewRing(16)
	r.Append([]byte("hello"))
	r.Append([]byte(" world"))
	if got := r.View(); !bytes.Equal(got, []byte("hello world")) {
		t.Errorf("got %q", got)
	}
	if r.Len() != 11 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestRingHeadDrop(t *testing.T) {
	r := NewRing(8)
	r.Append([]byte("abcdefgh"))
	r.Append([]byte("XY"))
	if got := r.View(); !bytes.Equal(got, []byte("cdefghXY")) {
		t.Errorf("oldest bytes should drop, got %q", got)
	}
	if r.Len() != 8 {
		t.Errorf("len = %d, cap = %d", r.Len(), r.Cap())
	}
}

func TestRingOversizeAppend(t *testing.T) {
	r := NewRing(4)
	r.Append([]byte("0123456789"))
	if got := r.View(); !bytes.Equal(got, []byte("6789")) {
		t.Errorf("should keep the tail, got %q", got)
	}
}

func TestRingConsume(t *testing.T) {
	r := NewRing(16)
	r.Append([]byte("abcdef"))
	r.Consume(2)
	if got := r.View(); !bytes.Equal(got, []byte("cdef")) {
		t.Errorf("got %q", got)
	}
	r.Consume(100)
	if r.Len() != 0 {
		t.Errorf("over-consume should empty the ring, len = %d", r.Len())
	}
}

func TestRingNeverExceedsCapacity(t *testing.T) {
	r := NewRing(64)
	for i := 0; i < 100; i++ {
		r.Append(bytes.Repeat([]byte{byte(i)}, i%13))
		if r.Len() > r.Cap() {
			t.Fatalf("len %d exceeds cap %d", r.Len(), r.Cap())
		}
	}
}
