// Package logging provides the structured logger used by both the master
// and slave processes: a Logger that still functions (as a no-op) when nil,
// and sub-loggers addressed by name for correlating concurrent sessions.
package logging

import (
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// DebugEnabled controls whether Debug* methods produce output. It is set
// once at startup from the -v/--verbose flag.
var DebugEnabled = false

// Logger writes prefixed lines through an underlying stdlib *log.Logger. A
// nil *Logger is valid and discards everything, which lets callers thread
// an optional logger through without nil-checking every call site.
type Logger struct {
	out    *log.Logger
	prefix string
}

// New wraps w as a top-level Logger with no prefix.
func New(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", log.Ldate|log.Ltime)}
}

// Sublogger derives a logger that prefixes every line with name, nested
// under the receiver's own prefix if it has one. The new logger shares the
// receiver's underlying writer.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{out: l.out, prefix: prefix}
}

func (l *Logger) emit(msg string) {
	if l.prefix != "" {
		msg = fmt.Sprintf("[%s] %s", l.prefix, msg)
	}
	l.out.Output(2, msg)
}

// Print logs with fmt.Sprint semantics.
func (l *Logger) Print(v ...interface{}) {
	if l != nil {
		l.emit(fmt.Sprint(v...))
	}
}

// Printf logs with fmt.Sprintf semantics.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.emit(fmt.Sprintf(format, v...))
	}
}

// Println logs with fmt.Sprintln semantics.
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.emit(fmt.Sprintln(v...))
	}
}

// Debug logs with fmt.Sprint semantics, but only when DebugEnabled.
func (l *Logger) Debug(v ...interface{}) {
	if l != nil && DebugEnabled {
		l.emit(fmt.Sprint(v...))
	}
}

// Debugf logs with fmt.Sprintf semantics, but only when DebugEnabled.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && DebugEnabled {
		l.emit(fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning in yellow.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.emit(color.YellowString("Warning: %v", err))
	}
}

// Error logs an error in red.
func (l *Logger) Error(err error) {
	if l != nil {
		l.emit(color.RedString("Error: %v", err))
	}
}
