// Package status implements the per-second aggregate sent/received status
// logger (C9).
package status

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/daveallie/bindrs/internal/logging"
)

// Tick is the status-report interval.
const Tick = 1000 * time.Millisecond

// Counters tracks event and byte counts for both directions of traffic.
// It is safe for concurrent use.
type Counters struct {
	mu    sync.Mutex
	sent  uint64
	sentB uint64
	recv  uint64
	recvB uint64
}

// New creates a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// RecordSent increments the sent-event count and adds n to the sent-byte
// count.
func (c *Counters) RecordSent(n int) {
	c.mu.Lock()
	c.sent++
	c.sentB += uint64(n)
	c.mu.Unlock()
}

// RecordReceived increments the received-event count and adds n to the
// received-byte count.
func (c *Counters) RecordReceived(n int) {
	c.mu.Lock()
	c.recv++
	c.recvB += uint64(n)
	c.mu.Unlock()
}

// readAndReset atomically reads and zeroes all four counters.
func (c *Counters) readAndReset() (sent, sentB, recv, recvB uint64) {
	c.mu.Lock()
	sent, sentB, recv, recvB = c.sent, c.sentB, c.recv, c.recvB
	c.sent, c.sentB, c.recv, c.recvB = 0, 0, 0, 0
	c.mu.Unlock()
	return
}

// Run reports and resets the counters every Tick until stop fires. It emits
// no line for ticks where both sent and received counts are zero. stop is
// waited on alongside the ticker, and checked again with a non-blocking
// (try-receive) select before each report, so cancellation takes effect as
// soon as stop is closed.
func Run(counters *Counters, log *logging.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}

			sent, sentB, recv, recvB := counters.readAndReset()
			if sent == 0 && recv == 0 {
				continue
			}

			log.Printf(
				"sent %d file(s) (%s), received %d file(s) (%s)",
				sent, humanize.Bytes(sentB),
				recv, humanize.Bytes(recvB),
			)
		}
	}
}
