// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/session.go
// Summary: PTY session lifecycle, async I/O and resize propagation.

package term

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a session whose PTY is gone.
var ErrClosed = errors.New("session closed")

// Hooks are fire-and-forget notifications invoked synchronously from the
// session's goroutines. Handlers must not block.
type Hooks struct {
	OnOutput func(sessionID string, data []byte)
	OnBell   func(sessionID string)
	OnResize func(sessionID string, cols, rows int)
}

// Session owns a PTY master attached to a child shell. The master,
// reader and writer are each independently lockable so a write may
// proceed while a read is outstanding.
type Session struct {
	id      string
	cmd     *exec.Cmd
	ptmx    *os.File
	rows    int
	cols    int
	hooks   Hooks
	output  chan []byte
	stop    chan struct{}
	wg      sync.WaitGroup
	ptmxMu  sync.Mutex
	readMu  sync.Mutex
	writeMu sync.Mutex
	pending []byte
	closed  bool
	closeFD sync.Once
}

// SessionOption configures a session before the child is spawned.
type SessionOption func(*Session)

// WithHooks installs notification callbacks.
func WithHooks(h Hooks) SessionOption {
	return func(s *Session) { s.hooks = h }
}

// Open spawns shellCmd attached to a fresh PTY pair. workingDir may be
// empty, in which case the child inherits the current directory.
func Open(shellCmd, workingDir string, rows, cols int, opts ...SessionOption) (*Session, error) {
	if workingDir != "" {
		info, err := os.Stat(workingDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("session: invalid working directory %q", workingDir)
		}
	}

	s := &Session{
		id:     uuid.NewString(),
		rows:   rows,
		cols:   cols,
		output: make(chan []byte, 64),
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	cmd := exec.Command(shellCmd)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("session: spawn %q: %w", shellCmd, err)
	}
	s.cmd = cmd
	s.ptmx = ptmx

	s.wg.Add(1)
	go s.readLoop()
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Size returns the current dimensions.
func (s *Session) Size() (cols, rows int) {
	s.ptmxMu.Lock()
	defer s.ptmxMu.Unlock()
	return s.cols, s.rows
}

// Output returns the channel of raw byte chunks read from the PTY. The
// channel is closed when the child exits or the session is closed.
func (s *Session) Output() <-chan []byte { return s.output }

// Bell fires the OnBell hook. The output parser calls this when it
// encounters a BEL in the session's stream.
func (s *Session) Bell() {
	if s.hooks.OnBell != nil {
		s.hooks.OnBell(s.id)
	}
}

// readLoop is the blocking worker. It owns the only blocking Read so
// the event loop never has to suspend on the PTY.
func (s *Session) readLoop() {
	defer s.wg.Done()
	defer close(s.output)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if s.hooks.OnOutput != nil {
				s.hooks.OnOutput(s.id, chunk)
			}
			select {
			case s.output <- chunk:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			select {
			case <-s.stop:
			default:
				log.Printf("Session %s: read loop ended: %v", s.id, err)
			}
			s.markClosed()
			return
		}
	}
}

// Read fills buf with pending output. It returns 0 immediately when no
// data is available; it never blocks the caller's event loop.
func (s *Session) Read(buf []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if len(s.pending) == 0 {
		select {
		case chunk, ok := <-s.output:
			if !ok {
				return 0, ErrClosed
			}
			s.pending = chunk
		default:
			if s.isClosed() {
				return 0, ErrClosed
			}
			return 0, nil
		}
	}
	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Write sends all bytes to the child and flushes. Partial writes are
// retried until every byte is consumed or a fatal error occurs. The
// synchronous flush trades throughput for input-to-echo latency.
func (s *Session) Write(data []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return 0, ErrClosed
	}
	written := 0
	for written < len(data) {
		n, err := s.ptmx.Write(data[written:])
		written += n
		if err != nil {
			s.markClosed()
			return written, fmt.Errorf("session: write: %w", err)
		}
	}
	return written, nil
}

// Resize propagates new dimensions to the kernel. Idempotent when the
// dimensions are unchanged.
func (s *Session) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("session: invalid size %dx%d", cols, rows)
	}
	s.ptmxMu.Lock()
	defer s.ptmxMu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if rows == s.rows && cols == s.cols {
		return nil
	}
	if err := pty.Setsize(s.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("session: resize: %w", err)
	}
	s.rows, s.cols = rows, cols
	if s.hooks.OnResize != nil {
		s.hooks.OnResize(s.id, cols, rows)
	}
	return nil
}

// Close terminates the child, cancels outstanding reads and guarantees
// the master descriptor is released.
func (s *Session) Close() {
	s.ptmxMu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.ptmxMu.Unlock()
	if alreadyClosed {
		return
	}

	close(s.stop)
	s.closeFD.Do(func() { s.ptmx.Close() })
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Signal(syscall.SIGTERM)
	}
	s.wg.Wait()
	if s.cmd != nil {
		s.cmd.Wait()
	}
}

func (s *Session) isClosed() bool {
	s.ptmxMu.Lock()
	defer s.ptmxMu.Unlock()
	return s.closed
}

func (s *Session) markClosed() {
	s.ptmxMu.Lock()
	s.closed = true
	s.ptmxMu.Unlock()
	s.closeFD.Do(func() { s.ptmx.Close() })
}
