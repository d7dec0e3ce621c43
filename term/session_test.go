package term

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"scrollterm/term/parser"
)

func TestOpenInvalidWorkingDir(t *testing.T) {
	_, err := Open("/bin/sh", "/no/such/dir", 24, 80)
	if err == nil {
		t.Fatal("want error for invalid working directory")
	}
	if !strings.Contains(err.Error(), "working directory") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenInvalidShell(t *testing.T) {
	_, err := Open("/no/such/shell", "", 24, 80)
	if err == nil {
		t.Fatal("want spawn error")
	}
}

func TestSessionEcho(t *testing.T) {
	s, err := Open("/bin/sh", "", 24, 80)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if s.ID() == "" {
		t.Error("session should have an id")
	}

	if _, err := s.Write([]byte("echo marker-ok\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	deadline := time.After(5 * time.Second)
	for !bytes.Contains(out.Bytes(), []byte("marker-ok")) {
		select {
		case chunk, ok := <-s.Output():
			if !ok {
				t.Fatalf("output closed early, got %q", out.String())
			}
			out.Write(chunk)
		case <-deadline:
			t.Fatalf("timed out waiting for echo, got %q", out.String())
		}
	}
}

func TestNonBlockingRead(t *testing.T) {
	s, err := Open("/bin/sh", "", 24, 80)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	// Drain the prompt burst, then an idle session must report zero
	// bytes without blocking.
	time.Sleep(300 * time.Millisecond)
	buf := make([]byte, 4096)
	for {
		n, err := s.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if n == 0 {
			break
		}
	}
	start := time.Now()
	n, err := s.Read(buf)
	if err != nil || n != 0 {
		t.Fatalf("idle read: n=%d err=%v", n, err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("read blocked the caller")
	}
}

func TestResizeIdempotent(t *testing.T) {
	resizes := 0
	s, err := Open("/bin/sh", "", 24, 80, WithHooks(Hooks{
		OnResize: func(string, int, int) { resizes++ },
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Resize(40, 120); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if err := s.Resize(40, 120); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if resizes != 1 {
		t.Errorf("unchanged resize should be a no-op, got %d hooks", resizes)
	}
	if cols, rows := s.Size(); cols != 120 || rows != 40 {
		t.Errorf("size = %dx%d", cols, rows)
	}
	if err := s.Resize(0, 10); err == nil {
		t.Error("want error for invalid size")
	}
}

func TestBellReachesHook(t *testing.T) {
	var gotID string
	bells := 0
	s, err := Open("/bin/sh", "", 24, 80, WithHooks(Hooks{
		OnBell: func(id string) {
			gotID = id
			bells++
		},
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	// The output parser relays BEL bytes through the session.
	screen := parser.NewScreen(10)
	p := parser.NewParser(screen, parser.WithBellHandler(s.Bell))
	p.Feed([]byte("ding\x07"))

	if bells != 1 {
		t.Fatalf("want 1 bell, got %d", bells)
	}
	if gotID != s.ID() {
		t.Errorf("hook got id %q, want %q", gotID, s.ID())
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	s, err := Open("/bin/sh", "", 24, 80)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()

	if _, err := s.Write([]byte("x")); err != ErrClosed {
		t.Errorf("write after close: %v", err)
	}
	if err := s.Resize(10, 10); err != ErrClosed {
		t.Errorf("resize after close: %v", err)
	}
	// Close is idempotent.
	s.Close()
}
