// Package session implements the executor (C6): it wires the watcher,
// codec, applier, and suppression ledger into the two steady-state
// goroutines, plus the status logger and signal handler, and owns the
// shutdown cascade described in spec.md §4.6.
package session

import (
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/daveallie/bindrs/internal/apply"
	"github.com/daveallie/bindrs/internal/cli"
	"github.com/daveallie/bindrs/internal/fswatch"
	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/logging"
	"github.com/daveallie/bindrs/internal/status"
	"github.com/daveallie/bindrs/internal/suppress"
	"github.com/daveallie/bindrs/internal/wire"
)

// Session owns one side (master or slave) of a synchronization run.
type Session struct {
	baseDir string
	log     *logging.Logger

	reader io.Reader
	writer io.Writer

	watcher  *fswatch.Watcher
	ledger   *suppress.Ledger
	counters *status.Counters

	killWatcher     chan struct{}
	killWatcherOnce sync.Once
	statStop        chan struct{}
}

// New constructs a Session for a base directory, a compiled IgnoreSet, and
// the transport (reader/writer pair — the slave's stdio, or the master's
// pipes to the spawned slave process).
func New(baseDir string, ignores *ignore.Set, reader io.Reader, writer io.Writer, log *logging.Logger) (*Session, error) {
	// A per-session id is minted purely for log correlation (multiple
	// sessions writing to the same bindrs.log, or concurrent test runs);
	// it never touches the wire.
	sessionLog := log.Sublogger(uuid.New().String()[:8])

	watcher, err := fswatch.New(baseDir, ignores, sessionLog)
	if err != nil {
		return nil, errors.Wrap(err, "unable to start filesystem watcher")
	}

	return &Session{
		baseDir:     baseDir,
		log:         sessionLog,
		reader:      reader,
		writer:      writer,
		watcher:     watcher,
		ledger:      suppress.New(),
		counters:    status.New(),
		killWatcher: make(chan struct{}),
		statStop:    make(chan struct{}),
	}, nil
}

// Run blocks until the shutdown cascade completes, returning the first
// fatal error encountered by the send or receive goroutines (nil on a
// clean peer-initiated or signal-initiated shutdown).
func (s *Session) Run() error {
	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.runSend(); err != nil {
			errs <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.runReceive(); err != nil {
			errs <- err
		}
	}()

	statDone := make(chan struct{})
	go func() {
		defer close(statDone)
		status.Run(s.counters, s.log, s.statStop)
	}()
	go s.runSignalHandler()

	wg.Wait()
	close(s.statStop)
	<-statDone
	close(errs)

	s.log.Printf("BindRS stopping")

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// triggerKill closes the watcher kill channel exactly once, implementing
// the "take" semantics of the original's Option<Sender>-guarded kill
// switch: whoever gets there first wins, subsequent callers are no-ops.
func (s *Session) triggerKill() {
	s.killWatcherOnce.Do(func() {
		close(s.killWatcher)
	})
}

func (s *Session) runSignalHandler() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, cli.TerminationSignals...)
	defer signal.Stop(signals)

	select {
	case <-signals:
		s.triggerKill()
	case <-s.killWatcher:
	}
}

// runSend drains the watcher's sink; for each surviving event it checks the
// echo-suppression ledger, and if the event isn't a recent echo, writes a
// frame to the transport. When the kill signal arrives it writes the EOF
// sentinel and returns.
func (s *Session) runSend() error {
	sink := make(chan fswatch.Event, 64)
	watchErrs := make(chan error, 1)
	go func() {
		watchErrs <- s.watcher.Start(sink, s.killWatcher)
	}()

	writer := wire.NewWriter(s.writer)

	for {
		select {
		case <-s.killWatcher:
			if err := writer.WriteFrame(nil); err != nil {
				return errors.Wrap(err, "unable to write EOF sentinel")
			}
			return <-watchErrs
		case ev, ok := <-sink:
			if !ok {
				return <-watchErrs
			}
			if err := s.sendEvent(writer, ev); err != nil {
				return err
			}
		}
	}
}

func (s *Session) sendEvent(writer *wire.Writer, ev fswatch.Event) error {
	// A CreateUpdate whose current target is a directory is the watcher
	// observing the directory itself coming into existence; the directory
	// has already been added to the recursive watch by internal/fswatch, so
	// there's nothing to transmit — only files carry contents on the wire.
	if ev.Action == wire.CreateUpdate {
		full := filepath.Join(s.baseDir, filepath.FromSlash(ev.Path))
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			return nil
		}
	}

	isEcho, release := s.ledger.Guard(ev.Path)
	if isEcho {
		s.log.Debugf("suppressing echo for %s", ev.Path)
		return nil
	}
	defer release()

	var record *wire.EventRecord
	var err error
	if ev.Action == wire.Delete {
		record = apply.BuildDelete(ev.Path)
	} else {
		record, err = apply.BuildFromPath(s.baseDir, ev.Path)
		if err != nil {
			// The file may have already been removed/replaced between the
			// debounced event firing and us reading it; this is not a fatal
			// condition, just a lost update that a later event will catch.
			s.log.Debugf("skipping %s: %v", ev.Path, err)
			return nil
		}
	}

	if err := writer.WriteFrame(record); err != nil {
		return errors.Wrap(err, "unable to send event to remote")
	}

	s.log.Debugf("sent %s %s to remote", ev.Action, ev.Path)
	s.counters.RecordSent(len(record.Contents))
	return nil
}

// runReceive reads frames from the transport and applies each to the local
// tree, recording applied paths to the echo-suppression ledger. On the EOF
// sentinel it triggers the local watcher's shutdown and returns.
func (s *Session) runReceive() error {
	reader := wire.NewReader(s.reader)

	for {
		record, err := reader.ReadFrame()
		if err != nil {
			s.triggerKill()
			return errors.Wrap(err, "unable to read from remote")
		}
		if record == nil {
			// EOF sentinel, or the transport closed: the peer is done.
			s.triggerKill()
			return nil
		}

		if err := apply.Apply(s.baseDir, record); err != nil {
			s.triggerKill()
			return errors.Wrap(err, "unable to apply received event")
		}
		s.ledger.Record(record.Path)

		s.log.Debugf("received %s %s from remote", record.Action, record.Path)
		s.counters.RecordReceived(len(record.Contents))
	}
}
