// Package suppress implements the echo-suppression ledger (C5): a
// short-lived record of recently-applied paths, used to keep a receiver's
// write from looping back out through the local watcher.
package suppress

import (
	"sync"
	"time"
)

// window is how long a path remains suppressed after being applied.
const window = 500 * time.Millisecond

type entry struct {
	path      string
	appliedAt time.Time
}

// Ledger is a mutex-protected record of recently-applied paths, shared by
// the sender and receiver goroutines of a session.
type Ledger struct {
	mu      sync.Mutex
	entries []entry
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record appends path to the ledger, timestamped now. Called by the
// receiver immediately after applying an incoming record.
func (l *Ledger) Record(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{path: path, appliedAt: time.Now()})
}

// prune drops entries older than window. Must be called with mu held.
func (l *Ledger) prune(now time.Time) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if now.Sub(e.appliedAt) < window {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// Guard acquires the ledger, prunes stale entries, and reports whether path
// is a recent echo. If it is not, the caller must invoke the returned
// release function after writing the outbound frame — the lock is held
// across both the check and the write so that an incoming record can't
// interleave mid-send (spec.md §4.4 step 4 / §5's ordering guarantee).
// If path IS an echo, Guard releases the lock itself and release is nil.
func (l *Ledger) Guard(path string) (isEcho bool, release func()) {
	l.mu.Lock()
	l.prune(time.Now())

	for _, e := range l.entries {
		if e.path == path {
			l.mu.Unlock()
			return true, nil
		}
	}

	return false, l.mu.Unlock
}
