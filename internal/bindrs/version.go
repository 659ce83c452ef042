// Package bindrs holds process-lifetime constants shared across the master
// and slave executables.
package bindrs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is the build-time version string, formatted as "major.minor.patch".
// It is the only global, process-lifetime state the module carries.
const Version = "1.1.0"

// VersionCompatibility describes the result of comparing two version strings.
type VersionCompatibility int

const (
	// VersionsMatch indicates the versions are identical.
	VersionsMatch VersionCompatibility = iota
	// VersionsCompatible indicates the versions differ only in patch level.
	VersionsCompatible
	// VersionsIncompatible indicates the versions differ in major or minor level.
	VersionsIncompatible
)

// ParseVersion splits a "major.minor.patch" string into its components.
func ParseVersion(raw string) (major, minor, patch int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return 0, 0, 0, errors.Errorf("malformed version string: %q", raw)
	}
	values := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "malformed version component: %q", p)
		}
		values[i] = v
	}
	return values[0], values[1], values[2], nil
}

// Compare reports the compatibility of a remote version string against the
// local Version. Equal major.minor with differing patch is "compatible" (a
// warning, not a failure); differing major or minor is "incompatible" (a
// fatal bootstrap error per the session handshake in internal/bootstrap).
func Compare(remote string) (VersionCompatibility, error) {
	lMajor, lMinor, lPatch, err := ParseVersion(Version)
	if err != nil {
		return 0, err
	}
	rMajor, rMinor, rPatch, err := ParseVersion(remote)
	if err != nil {
		return 0, errors.Wrap(err, "unable to parse remote version")
	}

	if lMajor != rMajor || lMinor != rMinor {
		return VersionsIncompatible, nil
	}
	if lPatch != rPatch {
		return VersionsCompatible, nil
	}
	return VersionsMatch, nil
}

// String returns a compact human-readable description of a compatibility
// result, suitable for inclusion in log messages.
func (v VersionCompatibility) String() string {
	switch v {
	case VersionsMatch:
		return "match"
	case VersionsCompatible:
		return "compatible (patch mismatch)"
	case VersionsIncompatible:
		return "incompatible"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}
