package conn

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/loganszeto/respkv/internal/protocol"
)

// chunkStream hands out one chunk per Read call and records writes.
type chunkStream struct {
	chunks [][]byte
	reads  int
	out    bytes.Buffer
}

func (s *chunkStream) Read(p []byte) (int, error) {
	if len(s.chunks) == 0 {
		return 0, io.EOF
	}
	s.reads++
	n := copy(p, s.chunks[0])
	s.chunks[0] = s.chunks[0][n:]
	if len(s.chunks[0]) == 0 {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func (s *chunkStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func bytewise(s string) [][]byte {
	out := make([][]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, []byte{s[i]})
	}
	return out
}

func TestReadFrameAcrossManyReads(t *testing.T) {
	wire := "*2\r\n$3\r\nGET\r\n$5\r\nhello\r\n"
	s := &chunkStream{chunks: bytewise(wire)}
	c := New(s)

	f, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !reflect.DeepEqual(f, protocol.StringArray("GET", "hello")) {
		t.Fatalf("unexpected frame %s", protocol.Describe(f))
	}
	if s.reads != len(wire) {
		t.Fatalf("expected %d reads, got %d", len(wire), s.reads)
	}
	if _, err := c.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFramePipelined(t *testing.T) {
	s := &chunkStream{chunks: [][]byte{[]byte("+OK\r\n:1\r\n$1\r\n")}}
	c := New(s)

	f, err := c.ReadFrame()
	if err != nil || f != protocol.OK {
		t.Fatalf("first frame: %v %v", f, err)
	}
	if c.Buffered() != len(":1\r\n$1\r\n") {
		t.Fatalf("unexpected buffered count %d", c.Buffered())
	}
	f, err = c.ReadFrame()
	if err != nil || f != protocol.Integer(1) {
		t.Fatalf("second frame: %v %v", f, err)
	}
	if s.reads != 1 {
		t.Fatalf("expected a single read, got %d", s.reads)
	}
	if _, err := c.ReadFrame(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadFrameCleanEOF(t *testing.T) {
	c := New(&chunkStream{})
	if _, err := c.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFrameProtocolError(t *testing.T) {
	c := New(&chunkStream{chunks: [][]byte{[]byte("*1\r\n$-2\r\n")}})
	_, err := c.ReadFrame()
	if !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestReadFrameLargeBulk(t *testing.T) {
	payload := strings.Repeat("v", 3*initialBufSize+17)
	wire, err := protocol.Encode(protocol.BulkString(payload))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var chunks [][]byte
	for len(wire) > 0 {
		n := min(1000, len(wire))
		chunks = append(chunks, wire[:n])
		wire = wire[n:]
	}
	c := New(&chunkStream{chunks: chunks})
	f, err := c.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(f.(protocol.BulkString)) != payload {
		t.Fatalf("payload mismatch")
	}
	if c.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d", c.Buffered())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error)    { return 0, io.ErrClosedPipe }
func (failingReader) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReadWriteIOErrors(t *testing.T) {
	c := New(failingReader{})
	if _, err := c.ReadFrame(); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected wrapped io.ErrClosedPipe, got %v", err)
	}
	if err := c.WriteFrame(protocol.OK); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected wrapped io.ErrClosedPipe, got %v", err)
	}
}

func TestWriteFrame(t *testing.T) {
	s := &chunkStream{}
	c := New(s)
	if err := c.WriteFrame(protocol.Array{protocol.BulkString("a"), protocol.Integer(2)}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if got := s.out.String(); got != "*2\r\n$1\r\na\r\n:2\r\n" {
		t.Fatalf("unexpected wire bytes %q", got)
	}
	if err := c.WriteFrame(protocol.SimpleString("bad\r\n")); !errors.Is(err, protocol.ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame, got %v", err)
	}
}

func segments(data []byte, size int) [][]byte {
	out := make([][]byte, 0, len(data)/size+1)
	for len(data) > 0 {
		n := min(size, len(data))
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

func TestReadFrameLargeArrayInSegments(t *testing.T) {
	const elems = 200000
	items := make([]string, elems)
	for i := range items {
		items[i] = "k"
	}
	want := protocol.StringArray(items...)
	wire, err := protocol.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := &chunkStream{chunks: segments(wire, 1460)}
	c := New(s)

	start := time.Now()
	f, err := c.ReadFrame()
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if arr, ok := f.(protocol.Array); !ok || len(arr) != elems {
		t.Fatalf("unexpected frame with %d bytes of input", len(wire))
	}
	if elapsed > 3*time.Second {
		t.Fatalf("reading %d bytes in segments took %s", len(wire), elapsed)
	}
}
