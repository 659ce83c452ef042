package session

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daveallie/bindrs/internal/ignore"
)

func TestSessionSyncsCreatedFileAcrossSides(t *testing.T) {
	localDir := t.TempDir()
	remoteDir := t.TempDir()

	localToRemoteR, localToRemoteW := io.Pipe()
	remoteToLocalR, remoteToLocalW := io.Pipe()

	ignores, err := ignore.Compile(nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	local, err := New(localDir, ignores, remoteToLocalR, localToRemoteW, nil)
	if err != nil {
		t.Fatalf("New(local) failed: %v", err)
	}
	remote, err := New(remoteDir, ignores, localToRemoteR, remoteToLocalW, nil)
	if err != nil {
		t.Fatalf("New(remote) failed: %v", err)
	}

	localDone := make(chan error, 1)
	remoteDone := make(chan error, 1)
	go func() { localDone <- local.Run() }()
	go func() { remoteDone <- remote.Run() }()

	// Give both sessions' goroutines a moment to start.
	time.Sleep(50 * time.Millisecond)

	src := filepath.Join(localDir, "hello.txt")
	if err := os.WriteFile(src, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dst := filepath.Join(remoteDir, "hello.txt")
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if contents, err := os.ReadFile(dst); err == nil {
			if string(contents) != "hello world" {
				t.Fatalf("unexpected remote contents: %q", contents)
			}
			local.triggerKill()
			<-localDone
			<-remoteDone
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for file to replicate to the remote side")
}
