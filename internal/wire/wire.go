// Package wire implements the framed binary protocol carried on the slave's
// stdio: a little-endian u64 length prefix (zero meaning the end-of-session
// sentinel) followed by that many bytes of a serialized EventRecord.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Action identifies the kind of change an EventRecord describes.
type Action byte

const (
	// CreateUpdate covers both file creation and overwrite.
	CreateUpdate Action = 0
	// Delete covers file removal.
	Delete Action = 1
)

// String renders an Action for log messages.
func (a Action) String() string {
	switch a {
	case CreateUpdate:
		return "create/update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// EventRecord is the single unit transmitted on the wire. Path is relative
// to the session base directory, uses '/' separators, never starts with '/'
// and never contains ".." components. Delete records always carry Mtime == 0
// and empty Contents.
type EventRecord struct {
	Action   Action
	Path     string
	Mtime    int64
	Contents []byte
}

// Reader wraps a buffered reader over the transport.
type Reader struct {
	r *bufio.Reader
}

// NewReader constructs a Reader, wrapping r in a bufio.Reader if it isn't
// already buffered (the slave's stdin is an unbuffered pipe).
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Writer wraps a buffered writer over the transport.
type Writer struct {
	w *bufio.Writer
}

// NewWriter constructs a Writer, wrapping w in a bufio.Writer (the slave's
// stdout is an unbuffered pipe).
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// ReadFrame reads the next frame. It returns (nil, nil) on the EOF sentinel
// (a zero length prefix) or if the underlying transport is closed while
// reading the length prefix — both are treated as "the peer is done". Any
// other error is a transport or decode failure.
func (r *Reader) ReadFrame() (*EventRecord, error) {
	var lengthBytes [8]byte
	if _, err := io.ReadFull(r.r, lengthBytes[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to read frame length")
	}

	length := binary.LittleEndian.Uint64(lengthBytes[:])
	if length == 0 {
		return nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, errors.Wrap(err, "unable to read frame payload")
	}

	return decodeRecord(payload)
}

// WriteFrame writes a frame. Passing a nil record writes the EOF sentinel
// (an 8-byte zero length prefix with no payload).
func (w *Writer) WriteFrame(record *EventRecord) error {
	if record == nil {
		var zero [8]byte
		if _, err := w.w.Write(zero[:]); err != nil {
			return errors.Wrap(err, "unable to write EOF sentinel")
		}
		return errors.Wrap(w.w.Flush(), "unable to flush EOF sentinel")
	}

	payload := encodeRecord(record)

	var lengthBytes [8]byte
	binary.LittleEndian.PutUint64(lengthBytes[:], uint64(len(payload)))

	if _, err := w.w.Write(lengthBytes[:]); err != nil {
		return errors.Wrap(err, "unable to write frame length")
	}
	if _, err := w.w.Write(payload); err != nil {
		return errors.Wrap(err, "unable to write frame payload")
	}
	return errors.Wrap(w.w.Flush(), "unable to flush frame")
}

// encodeRecord serializes a record in declaration order: action (1 byte),
// path length + UTF-8 bytes, mtime, contents length + bytes.
func encodeRecord(record *EventRecord) []byte {
	pathBytes := []byte(record.Path)

	size := 1 + 8 + len(pathBytes) + 8 + 8 + len(record.Contents)
	buf := make([]byte, size)

	offset := 0
	buf[offset] = byte(record.Action)
	offset++

	binary.LittleEndian.PutUint64(buf[offset:], uint64(len(pathBytes)))
	offset += 8
	offset += copy(buf[offset:], pathBytes)

	binary.LittleEndian.PutUint64(buf[offset:], uint64(record.Mtime))
	offset += 8

	binary.LittleEndian.PutUint64(buf[offset:], uint64(len(record.Contents)))
	offset += 8
	copy(buf[offset:], record.Contents)

	return buf
}

// decodeRecord deserializes a record, rejecting truncated input.
func decodeRecord(buf []byte) (*EventRecord, error) {
	if len(buf) < 1+8 {
		return nil, errors.New("truncated record: missing action/path-length")
	}

	record := &EventRecord{Action: Action(buf[0])}
	offset := 1

	pathLen, err := readLength(buf, offset)
	if err != nil {
		return nil, err
	}
	offset += 8

	if uint64(len(buf)-offset) < pathLen {
		return nil, errors.New("truncated record: short path")
	}
	record.Path = string(buf[offset : offset+int(pathLen)])
	offset += int(pathLen)

	if len(buf)-offset < 8 {
		return nil, errors.New("truncated record: missing mtime")
	}
	mtimeLen, err := readLength(buf, offset)
	if err != nil {
		return nil, err
	}
	record.Mtime = int64(mtimeLen)
	offset += 8

	contentsLen, err := readLength(buf, offset)
	if err != nil {
		return nil, err
	}
	offset += 8

	if uint64(len(buf)-offset) < contentsLen {
		return nil, errors.New("truncated record: short contents")
	}
	record.Contents = append([]byte(nil), buf[offset:offset+int(contentsLen)]...)

	return record, nil
}

func readLength(buf []byte, offset int) (uint64, error) {
	if len(buf)-offset < 8 {
		return 0, errors.New("truncated record: short length field")
	}
	return binary.LittleEndian.Uint64(buf[offset : offset+8]), nil
}
