// Package procexec provides a uniform "run this command, locally or on the
// remote" adapter, encapsulating the local-vs-ssh distinction for the
// commands internal/bootstrap runs against the target.
package procexec

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/daveallie/bindrs/internal/remote"
)

// Adapter builds *exec.Cmd values for a single remote target, transparently
// wrapping them in "ssh -q user@host -p port -C ..." when the target is
// remote, and tokenizing on whitespace to invoke the program directly
// otherwise.
type Adapter struct {
	Target remote.Target
}

// New constructs an Adapter for the given target.
func New(target remote.Target) *Adapter {
	return &Adapter{Target: target}
}

// Command builds (but does not start) a command. cmd is interpreted as
// literal input to the remote shell when the target is remote, so it may
// contain multiple arguments, quoting, pipes, etc; when local, it is
// tokenized on whitespace.
func (a *Adapter) Command(ctx context.Context, cmd string) *exec.Cmd {
	if a.Target.IsRemote {
		return exec.CommandContext(ctx, "ssh",
			"-q", a.Target.UserHost(),
			"-p", a.Target.Port,
			"-C", cmd,
		)
	}

	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return exec.CommandContext(ctx, "true")
	}
	return exec.CommandContext(ctx, fields[0], fields[1:]...)
}

// Run builds and runs cmd, returning any error from the underlying process.
func (a *Adapter) Run(ctx context.Context, cmd string) error {
	return errors.Wrap(a.Command(ctx, cmd).Run(), "command failed")
}

// Output builds and runs cmd, returning its standard output.
func (a *Adapter) Output(ctx context.Context, cmd string) ([]byte, error) {
	out, err := a.Command(ctx, cmd).Output()
	if err != nil {
		return out, errors.Wrap(err, "command failed")
	}
	return out, nil
}
