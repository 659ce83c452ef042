// Package apply implements the filesystem applier (C4): turning a received
// EventRecord into a mutation of the local tree.
package apply

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/daveallie/bindrs/internal/wire"
)

// Apply mutates baseDir according to record. I/O failures are returned
// un-swallowed; the caller (internal/session) treats them as fatal for the
// session, per the spec's error-handling design.
func Apply(baseDir string, record *wire.EventRecord) error {
	target := filepath.Join(baseDir, filepath.FromSlash(record.Path))

	info, statErr := os.Lstat(target)
	exists := statErr == nil
	if exists && info.IsDir() {
		if err := os.RemoveAll(target); err != nil {
			return errors.Wrapf(err, "unable to remove directory occupying %s", target)
		}
		exists = false
	}

	switch record.Action {
	case wire.CreateUpdate:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "unable to create parent directory for %s", target)
		}

		file, err := os.Create(target)
		if err != nil {
			return errors.Wrapf(err, "unable to create %s", target)
		}
		defer file.Close()

		if _, err := file.Write(record.Contents); err != nil {
			return errors.Wrapf(err, "unable to write contents to %s", target)
		}
		if err := file.Sync(); err != nil {
			return errors.Wrapf(err, "unable to sync %s", target)
		}

		mtime := time.Unix(record.Mtime, 0)
		if err := os.Chtimes(target, mtime, mtime); err != nil {
			return errors.Wrapf(err, "unable to set mtime on %s", target)
		}

		return nil
	case wire.Delete:
		if !exists {
			return nil
		}
		if err := os.Remove(target); err != nil {
			return errors.Wrapf(err, "unable to delete %s", target)
		}
		return nil
	default:
		return errors.Errorf("unknown action %v for %s", record.Action, target)
	}
}

// BuildFromPath reads a local file and builds the EventRecord that would be
// sent to describe its current create/update state, preserving its mtime.
// Used by internal/session when translating a local Create/Write event into
// an outgoing record.
func BuildFromPath(baseDir, shortPath string) (*wire.EventRecord, error) {
	fullPath := filepath.Join(baseDir, filepath.FromSlash(shortPath))

	contents, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", fullPath)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", fullPath)
	}

	return &wire.EventRecord{
		Action:   wire.CreateUpdate,
		Path:     shortPath,
		Mtime:    info.ModTime().Unix(),
		Contents: contents,
	}, nil
}

// BuildDelete constructs the EventRecord for a deletion of shortPath.
func BuildDelete(shortPath string) *wire.EventRecord {
	return &wire.EventRecord{
		Action: wire.Delete,
		Path:   shortPath,
	}
}
