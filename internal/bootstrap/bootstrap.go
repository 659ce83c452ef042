// Package bootstrap implements the master-side remote session bootstrap
// (C7): remote directory and binary validation, version compatibility
// checks, the rsync bulk reconcile, and spawning the slave process with
// its stdio wired up for the executor.
package bootstrap

import (
	"context"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/daveallie/bindrs/internal/bindrs"
	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/logging"
	"github.com/daveallie/bindrs/internal/procexec"
	"github.com/daveallie/bindrs/internal/remote"
)

// settleDelay is slept after spawning the slave to let its logger open its
// file and its reader start buffering the transport. See DESIGN.md for the
// explicit-ready-frame alternative this was weighed against.
const settleDelay = 1 * time.Second

// Slave is a spawned remote (or local, for testing) bindrs slave process
// with its stdio wired up as the executor's transport.
type Slave struct {
	cmd    *exec.Cmd
	Reader io.Reader
	Writer io.WriteCloser
}

// Wait blocks until the slave process exits.
func (s *Slave) Wait() error {
	return s.cmd.Wait()
}

// Options configures a bootstrap run.
type Options struct {
	BaseDir    string
	Target     remote.Target
	Ignores    *ignore.Set
	BinaryPath string
	Verbose    bool
}

// Run validates the remote side, performs the bulk reconcile, and spawns
// the slave, returning its piped stdio ready for internal/session.New.
func Run(ctx context.Context, opts Options, log *logging.Logger) (*Slave, error) {
	adapter := procexec.New(opts.Target)

	if err := validateRemoteDir(ctx, adapter, opts.Target.Path); err != nil {
		return nil, err
	}

	binPath, err := locateRemoteBinary(ctx, adapter, opts.Target.Path)
	if err != nil {
		return nil, err
	}

	if err := checkVersion(ctx, adapter, binPath, log); err != nil {
		return nil, err
	}

	if err := reconcile(ctx, adapter, opts); err != nil {
		return nil, err
	}

	slave, err := spawnSlave(ctx, adapter, binPath, opts)
	if err != nil {
		return nil, err
	}

	time.Sleep(settleDelay)
	return slave, nil
}

func validateRemoteDir(ctx context.Context, adapter *procexec.Adapter, path string) error {
	out, err := adapter.Output(ctx, "test -d "+shellQuote(path)+" || echo 'bad'")
	if err != nil {
		return errors.Wrap(err, "unable to validate remote directory")
	}
	if strings.TrimSpace(string(out)) == "bad" {
		return errors.Errorf("remote directory %s does not exist", path)
	}
	return nil
}

func locateRemoteBinary(ctx context.Context, adapter *procexec.Adapter, remotePath string) (string, error) {
	out, err := adapter.Output(ctx, "which bindrs")
	if err == nil {
		if trimmed := strings.TrimSpace(string(out)); trimmed != "" && trimmed != "bindrs not found" {
			return trimmed, nil
		}
	}

	fallback := "PATH=" + shellQuote(remotePath+"/.bindrs") + ":$PATH which bindrs"
	out, err = adapter.Output(ctx, fallback)
	if err != nil {
		return "", errors.Wrap(err, "unable to locate bindrs binary on remote")
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" || trimmed == "bindrs not found" {
		return "", errors.New("bindrs binary not found on remote")
	}
	return trimmed, nil
}

func checkVersion(ctx context.Context, adapter *procexec.Adapter, binPath string, log *logging.Logger) error {
	out, err := adapter.Output(ctx, binPath+" --version")
	if err != nil {
		return errors.Wrap(err, "unable to check remote bindrs version")
	}

	remoteVersion := trailingSemver(string(out))
	compat, err := bindrs.Compare(remoteVersion)
	if err != nil {
		return errors.Wrap(err, "unable to parse remote bindrs version")
	}

	switch compat {
	case bindrs.VersionsIncompatible:
		return errors.Errorf("local bindrs %s is incompatible with remote %s", bindrs.Version, remoteVersion)
	case bindrs.VersionsCompatible:
		if log != nil {
			log.Warn(errors.Errorf("remote bindrs %s differs in patch version from local %s", remoteVersion, bindrs.Version))
		}
	}
	return nil
}

func reconcile(ctx context.Context, adapter *procexec.Adapter, opts Options) error {
	excludeFile, err := writeExcludeFile(ctx, adapter, opts)
	if err != nil {
		return err
	}
	defer os.Remove(excludeFile)

	args := []string{"-azv", "--exclude-from", excludeFile, "--delete", "--ignore-errors"}
	if opts.Target.IsRemote {
		args = append(args, "-e", "ssh -p "+opts.Target.Port)
	}

	src := ensureTrailingSlash(opts.BaseDir)
	dst := ensureTrailingSlash(opts.Target.FullPath())
	args = append(args, src, dst)

	cmd := exec.CommandContext(ctx, "rsync", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "rsync bulk reconcile failed: %s", string(out))
	}
	return nil
}

// writeExcludeFile enumerates every ignore-matching directory in either
// tree — the local base directory, walked in-process, and the target
// directory, enumerated via a `find TARGET -type d` run through adapter (so
// it goes over ssh when the target is remote) — unions and dedupes them,
// sorts by path length, and prunes any entry that is a descendant of an
// already-written entry. A directory that exists only on one side (e.g. a
// prior session's leftover build output matching a user --ignore pattern)
// must still end up in the exclude file, or the first `rsync --delete` bulk
// reconcile will delete it rather than leave it alone.
func writeExcludeFile(ctx context.Context, adapter *procexec.Adapter, opts Options) (string, error) {
	localDirs, err := findIgnoredDirs(opts.BaseDir, opts.Ignores)
	if err != nil {
		return "", err
	}

	remoteDirs, err := findIgnoredDirsRemote(ctx, adapter, opts.Target.Path, opts.Ignores)
	if err != nil {
		return "", err
	}

	seen := make(map[string]struct{}, len(localDirs)+len(remoteDirs))
	var dirs []string
	for _, d := range append(localDirs, remoteDirs...) {
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			dirs = append(dirs, d)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) < len(dirs[j]) })

	var pruned []string
	for _, d := range dirs {
		skip := false
		for _, kept := range pruned {
			if strings.HasPrefix(d, kept+"/") {
				skip = true
				break
			}
		}
		if !skip {
			pruned = append(pruned, d)
		}
	}

	f, err := ioutil.TempFile("", "bindrs-exclude-*")
	if err != nil {
		return "", errors.Wrap(err, "unable to create rsync exclude file")
	}
	defer f.Close()

	for _, d := range pruned {
		if _, err := f.WriteString(d + "\n"); err != nil {
			return "", errors.Wrap(err, "unable to write rsync exclude file")
		}
	}
	return f.Name(), nil
}

func findIgnoredDirs(root string, ignores *ignore.Set) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() || path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		short := filepath.ToSlash(rel)
		if ignores.Matches(short) {
			if _, ok := seen[short]; !ok {
				seen[short] = struct{}{}
				out = append(out, short)
			}
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to enumerate ignored directories")
	}
	return out, nil
}

// findIgnoredDirsRemote enumerates directories under root via the adapter
// (so over ssh when the target is remote, exec'd directly otherwise) and
// returns the root-relative short paths that match an ignore pattern. `find`
// lists every directory flatly, so both a matching parent and its children
// can come back; the caller's parent-pruning pass collapses that.
func findIgnoredDirsRemote(ctx context.Context, adapter *procexec.Adapter, root string, ignores *ignore.Set) ([]string, error) {
	// The local adapter tokenizes on whitespace without a shell, so root is
	// only shell-quoted when it goes to the remote shell.
	arg := root
	if adapter.Target.IsRemote {
		arg = shellQuote(root)
	}
	out, err := adapter.Output(ctx, "find "+arg+" -type d")
	if err != nil {
		return nil, errors.Wrap(err, "unable to enumerate remote directories")
	}

	prefix := strings.TrimSuffix(root, "/") + "/"

	var dirs []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, prefix) {
			continue
		}
		short := filepath.ToSlash(strings.TrimPrefix(line, prefix))
		if ignores.Matches(short) {
			dirs = append(dirs, short)
		}
	}
	return dirs, nil
}

func spawnSlave(ctx context.Context, adapter *procexec.Adapter, binPath string, opts Options) (*Slave, error) {
	var b strings.Builder
	b.WriteString(binPath)
	b.WriteString(" slave ")
	b.WriteString(shellQuote(opts.Target.Path))
	for _, p := range opts.Ignores.Patterns() {
		b.WriteString(" --ignore ")
		b.WriteString(shellQuote(p))
	}
	if opts.Verbose {
		b.WriteString(" -v")
	}

	cmd := adapter.Command(ctx, b.String())
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to open slave stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to open slave stdout")
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "unable to spawn slave process")
	}

	return &Slave{cmd: cmd, Reader: stdout, Writer: stdin}, nil
}

// trailingSemver extracts the last whitespace-separated token of a
// "--version" invocation's output, e.g. "bindrs version 1.1.0" -> "1.1.0".
func trailingSemver(out string) string {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func ensureTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
