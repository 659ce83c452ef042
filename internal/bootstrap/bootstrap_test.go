package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/procexec"
	"github.com/daveallie/bindrs/internal/remote"
)

func TestWriteExcludeFilePrunesDescendants(t *testing.T) {
	base := t.TempDir()
	for _, d := range []string{".git", "node_modules", "node_modules/sub", "keep"} {
		if err := os.MkdirAll(filepath.Join(base, d), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
	}

	ignores, err := ignore.Compile([]string{"node_modules"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	target := remote.Target{IsRemote: false, Path: base}
	adapter := procexec.New(target)
	opts := Options{BaseDir: base, Target: target, Ignores: ignores}

	path, err := writeExcludeFile(context.Background(), adapter, opts)
	if err != nil {
		t.Fatalf("writeExcludeFile failed: %v", err)
	}
	defer os.Remove(path)

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Fields(string(contents))

	if len(lines) != 1 || lines[0] != "node_modules" {
		t.Fatalf("expected only the pruned top-level entry, got %v", lines)
	}
}

func TestEnsureTrailingSlash(t *testing.T) {
	if ensureTrailingSlash("/a/b") != "/a/b/" {
		t.Fatal("expected a trailing slash to be added")
	}
	if ensureTrailingSlash("/a/b/") != "/a/b/" {
		t.Fatal("expected an existing trailing slash to be preserved")
	}
}
