package wire

import (
	"bytes"
	"testing"
)

func TestRoundTripCreateUpdate(t *testing.T) {
	record := &EventRecord{
		Action:   CreateUpdate,
		Path:     "a/b.txt",
		Mtime:    1700000000,
		Contents: []byte("hello"),
	}

	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteFrame(record); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got, err := NewReader(&buf).ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record, got nil")
	}
	if got.Action != record.Action || got.Path != record.Path || got.Mtime != record.Mtime {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, record)
	}
	if !bytes.Equal(got.Contents, record.Contents) {
		t.Fatalf("contents mismatch: got %q, want %q", got.Contents, record.Contents)
	}
}

func TestRoundTripDelete(t *testing.T) {
	record := &EventRecord{Action: Delete, Path: "sub/x", Mtime: 0, Contents: nil}

	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteFrame(record); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got, err := NewReader(&buf).ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if got.Action != Delete || got.Path != "sub/x" || got.Mtime != 0 || len(got.Contents) != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestRoundTripEmptyFile(t *testing.T) {
	record := &EventRecord{Action: CreateUpdate, Path: "empty", Mtime: 5, Contents: []byte{}}

	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteFrame(record); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	got, err := NewReader(&buf).ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if len(got.Contents) != 0 {
		t.Fatalf("expected empty contents, got %q", got.Contents)
	}
}

func TestEOFSentinelIsEightZeroBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteFrame(nil); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if buf.Len() != 8 {
		t.Fatalf("expected 8 bytes, got %d", buf.Len())
	}
	for i, b := range buf.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d was %d, want 0", i, b)
		}
	}
}

func TestReadFrameOnEOFSentinel(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, 8))
	got, err := NewReader(buf).ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil record, got %+v", got)
	}
}

func TestReadFrameOnClosedTransport(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	got, err := NewReader(buf).ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil record, got %+v", got)
	}
}

func TestReadFrameRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteFrame(&EventRecord{
		Action: CreateUpdate, Path: "x", Contents: []byte("12345"),
	}); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()-3])
	if _, err := NewReader(truncated).ReadFrame(); err == nil {
		t.Fatal("expected an error decoding truncated payload")
	}
}

func TestRoundTripMultipleFrames(t *testing.T) {
	records := []*EventRecord{
		{Action: CreateUpdate, Path: "foo.txt", Mtime: 1700000000, Contents: []byte("hello")},
		{Action: Delete, Path: "bar.txt"},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, r := range records {
		if err := w.WriteFrame(r); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	if err := w.WriteFrame(nil); err != nil {
		t.Fatalf("WriteFrame(nil) failed: %v", err)
	}

	reader := NewReader(&buf)
	for i, want := range records {
		got, err := reader.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		if got == nil || got.Path != want.Path {
			t.Fatalf("frame %d mismatch: got %+v, want %+v", i, got, want)
		}
	}

	sentinel, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame sentinel failed: %v", err)
	}
	if sentinel != nil {
		t.Fatalf("expected sentinel nil, got %+v", sentinel)
	}
}
