package fswatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/wire"
)

func TestWatcherEmitsCreateUpdateForNewFile(t *testing.T) {
	dir := t.TempDir()
	ignores, err := ignore.Compile(nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	w, err := New(dir, ignores, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	sink := make(chan Event, 8)
	kill := make(chan struct{})
	go func() {
		if err := w.Start(sink, kill); err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	}()
	defer close(kill)

	target := filepath.Join(dir, "foo.txt")
	if err := os.WriteFile(target, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	select {
	case ev := <-sink:
		if ev.Path != "foo.txt" {
			t.Fatalf("unexpected path: %q", ev.Path)
		}
		if ev.Action != wire.CreateUpdate {
			t.Fatalf("unexpected action: %v", ev.Action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatcherIgnoresMatchingPaths(t *testing.T) {
	dir := t.TempDir()
	ignores, err := ignore.Compile([]string{"ignored"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "ignored"), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	w, err := New(dir, ignores, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	sink := make(chan Event, 8)
	kill := make(chan struct{})
	go w.Start(sink, kill)
	defer close(kill)

	if err := os.WriteFile(filepath.Join(dir, "ignored", "a"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	select {
	case ev := <-sink:
		t.Fatalf("expected no event for an ignored path, got %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}
