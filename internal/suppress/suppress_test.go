package suppress

import (
	"testing"
	"time"
)

func TestRecentlyAppliedPathIsSuppressed(t *testing.T) {
	l := New()
	l.Record("a/b")

	isEcho, release := l.Guard("a/b")
	if !isEcho {
		t.Fatal("expected a/b to be suppressed as a recent echo")
	}
	if release != nil {
		t.Fatal("expected release to be nil when the event is an echo")
	}
}

func TestUnrelatedPathIsNotSuppressed(t *testing.T) {
	l := New()
	l.Record("a/b")

	isEcho, release := l.Guard("c/d")
	if isEcho {
		t.Fatal("did not expect c/d to be suppressed")
	}
	if release == nil {
		t.Fatal("expected a release function for a non-echo event")
	}
	release()
}

func TestEntryExpiresAfterWindow(t *testing.T) {
	l := New()
	l.mu.Lock()
	l.entries = append(l.entries, entry{path: "a/b", appliedAt: time.Now().Add(-600 * time.Millisecond)})
	l.mu.Unlock()

	isEcho, release := l.Guard("a/b")
	if isEcho {
		t.Fatal("expected a stale entry to no longer suppress")
	}
	release()
}
