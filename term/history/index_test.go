package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestAddAndSearch(t *testing.T) {
	idx := openTestIndex(t)
	base := time.Now()
	idx.Add(1, base, "make build")
	idx.Add(2, base.Add(time.Second), "ok: compiled 14 packages")
	idx.Add(3, base.Add(2*time.Second), "make test")
	idx.Flush()

	results, err := idx.Search("make", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	// Newest first.
	if results[0].LineIdx != 3 || results[1].LineIdx != 1 {
		t.Errorf("order wrong: %+v", results)
	}
	if results[0].Content != "make test" {
		t.Errorf("content: %q", results[0].Content)
	}
}

func TestSearchEscapesLikeMetachars(t *testing.T) {
	idx := openTestIndex(t)
	idx.Add(1, time.Now(), "100% done")
	idx.Add(2, time.Now(), "1000 done")
	idx.Flush()

	results, err := idx.Search("100%", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].LineIdx != 1 {
		t.Errorf("%% should match literally, got %+v", results)
	}
}

func TestFindLineAt(t *testing.T) {
	idx := openTestIndex(t)
	base := time.Now()
	idx.Add(10, base, "early")
	idx.Add(20, base.Add(10*time.Second), "late")
	idx.Flush()

	got, err := idx.FindLineAt(base.Add(5 * time.Second))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != 10 {
		t.Errorf("want line 10, got %d", got)
	}
}

func TestFlushAfterClose(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	done := make(chan struct{})
	go func() {
		idx.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush after close should return, not block")
	}
}

func TestAddAfterClose(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Must not panic.
	idx.Add(1, time.Now(), "dropped")
	if err := idx.Close(); err != nil {
		t.Errorf("double close: %v", err)
	}
}
