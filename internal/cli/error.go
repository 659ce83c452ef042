// Package cli holds the small pieces of command-line plumbing shared by the
// run and slave entry points: fatal-error reporting and termination signals.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// flushDelay is how long Fatal waits before exiting, giving the logging sink
// time to flush to disk (spec'd at 500ms).
const flushDelay = 500 * time.Millisecond

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message, gives the logger a moment to flush, and
// terminates the process with exit code 1.
func Fatal(err error) {
	Error(err)
	time.Sleep(flushDelay)
	os.Exit(1)
}
