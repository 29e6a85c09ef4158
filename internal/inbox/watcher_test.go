package inbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitEvent(t *testing.T, w *Watcher) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		return ev, ok
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for inbox event")
		return Event{}, false
	}
}

func TestPDFDropIsReported(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer drain(w)

	path := filepath.Join(dir, "Pitch.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ev, ok := waitEvent(t, w)
	if !ok {
		t.Fatalf("event channel closed early")
	}
	if ev.Path != path {
		t.Fatalf("event path = %q, want %q", ev.Path, path)
	}
}

func TestNonPDFIsIgnored(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer drain(w)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Fatalf("unexpected event for non-pdf: %+v", ev)
		}
	case <-time.After(300 * time.Millisecond):
		// Expected: nothing arrives.
	}
}

func TestCloseClosesEventChannel(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event channel did not close")
	}
	// Second close must be a no-op.
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

// drain closes the watcher and consumes remaining events so the
// goroutine exits before goleak runs.
func drain(w *Watcher) {
	_ = w.Close()
	for range w.Events() {
	}
}
