// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/ring.go
// Summary: Bounded per-session buffer of raw PTY output bytes.

package term

// RingBytesPerLine sizes the byte ring relative to the scrollback depth.
const RingBytesPerLine = 256

// Ring is a bounded FIFO of raw bytes. When an append would exceed the
// capacity, the oldest bytes are dropped from the head. The parser is a
// byte-safe state machine, so truncation at arbitrary boundaries is
// tolerated downstream.
type Ring struct {
	buf []byte
	max int
}

// NewRing creates a ring with the given byte capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = RingBytesPerLine
	}
	return &Ring{max: capacity}
}

// Append adds bytes, evicting from the head when over capacity.
func (r *Ring) Append(b []byte) {
	if len(b) >= r.max {
		r.buf = append(r.buf[:0], b[len(b)-r.max:]...)
		return
	}
	r.buf = append(r.buf, b...)
	if len(r.buf) > r.max {
		drop := len(r.buf) - r.max
		r.buf = append(r.buf[:0], r.buf[drop:]...)
	}
}

// Consume removes n bytes from the head.
func (r *Ring) Consume(n int) {
	if n >= len(r.buf) {
		r.buf = r.buf[:0]
		return
	}
	r.buf = append(r.buf[:0], r.buf[n:]...)
}

// View returns the buffered bytes as one contiguous slice. The slice is
// only valid until the next Append or Consume.
func (r *Ring) View() []byte { return r.buf }

// Len returns the number of buffered bytes.
func (r *Ring) Len() int { return len(r.buf) }

// Cap returns the maximum capacity in bytes.
func (r *Ring) Cap() int { return r.max }
