package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SessionLogPath returns the path of the per-session log file for a base
// directory, per the persisted-state contract: BASE_DIR/.bindrs/bindrs.log.
func SessionLogPath(baseDir string) string {
	return filepath.Join(baseDir, ".bindrs", "bindrs.log")
}

// NewSessionLogger creates the root logger for a session. The log file is
// truncated on every startup and is written in a line-structured format
// whose first line records the version and mode. The returned close
// function should be invoked once the session has finished.
func NewSessionLogger(baseDir, version, mode string) (*Logger, func() error, error) {
	logDir := filepath.Join(baseDir, ".bindrs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "unable to create .bindrs directory")
	}

	path := SessionLogPath(baseDir)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to open session log file")
	}

	if _, err := fmt.Fprintf(file, "version=%s mode=%s\n", version, mode); err != nil {
		file.Close()
		return nil, nil, errors.Wrap(err, "unable to write log header")
	}

	return New(file), file.Close, nil
}
