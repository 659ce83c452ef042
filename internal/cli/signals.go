package cli

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals that trigger the shutdown cascade.
// SIGABRT and friends are intentionally excluded since the Go runtime
// handles them specially (e.g. dumping a stack trace).
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
