// Package remote parses the REMOTE_DIR CLI argument into a Target describing
// whether synchronization is local or carried over SSH.
package remote

import (
	"fmt"
	"regexp"
)

// defaultPort is used when a remote target doesn't specify --port.
const defaultPort = "22"

var remotePattern = regexp.MustCompile(`^([^@]+)@([^:]+):(.+)$`)

// Target describes one endpoint of a session: either a local filesystem
// path, or a path on a host reachable over SSH.
type Target struct {
	IsRemote bool
	Path     string
	User     string
	Host     string
	Port     string
}

// Parse builds a Target from a REMOTE_DIR string and an optional --port
// override. REMOTE_DIR matching USER@HOST:PATH produces a remote Target
// with Port defaulting to 22; anything else is a local Target.
func Parse(remoteDir string, port string) Target {
	if m := remotePattern.FindStringSubmatch(remoteDir); m != nil {
		p := port
		if p == "" {
			p = defaultPort
		}
		return Target{
			IsRemote: true,
			User:     m[1],
			Host:     m[2],
			Path:     m[3],
			Port:     p,
		}
	}

	return Target{
		IsRemote: false,
		Path:     remoteDir,
	}
}

// FullPath returns the path in a form suitable for passing to rsync: just
// the path for a local target, or USER@HOST:PATH for a remote one.
func (t Target) FullPath() string {
	if t.IsRemote {
		return fmt.Sprintf("%s@%s:%s", t.User, t.Host, t.Path)
	}
	return t.Path
}

// UserHost returns "user@host", the target portion of an ssh invocation.
// It is only meaningful when IsRemote is true.
func (t Target) UserHost() string {
	return fmt.Sprintf("%s@%s", t.User, t.Host)
}
