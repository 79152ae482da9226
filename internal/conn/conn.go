// Package conn drives the RESP codec over a byte stream.
package conn

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/loganszeto/respkv/internal/protocol"
)

const (
	initialBufSize = 4 * 1024
	minReadSize    = 512
)

// ErrTruncated is returned when the peer closes the stream in the middle
// of a frame.
var ErrTruncated = errors.New("connection closed with a partial frame buffered")

type Conn struct {
	rw   io.ReadWriter
	w    *bufio.Writer
	buf  []byte
	scan protocol.Scanner
}

func New(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:  rw,
		w:   bufio.NewWriter(rw),
		buf: make([]byte, 0, initialBufSize),
	}
}

// ReadFrame returns the next frame from the stream. It returns io.EOF when
// the peer closed the stream cleanly between frames.
func (c *Conn) ReadFrame() (protocol.Frame, error) {
	for {
		n, err := c.scan.Scan(c.buf)
		if err == nil {
			f, _, err := protocol.Parse(c.buf[:n])
			c.scan.Reset()
			if err != nil {
				return nil, err
			}
			c.consume(n)
			return f, nil
		}
		if !errors.Is(err, protocol.ErrIncomplete) {
			return nil, err
		}
		if err := c.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) == 0 {
					return nil, io.EOF
				}
				return nil, ErrTruncated
			}
			return nil, fmt.Errorf("read: %w", err)
		}
	}
}

// WriteFrame serializes f and flushes it to the stream.
func (c *Conn) WriteFrame(f protocol.Frame) error {
	if err := protocol.WriteFrame(c.w, f); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Buffered reports how many received bytes are waiting to be parsed.
func (c *Conn) Buffered() int {
	return len(c.buf)
}

func (c *Conn) consume(n int) {
	if n == len(c.buf) {
		c.buf = c.buf[:0]
		return
	}
	c.buf = c.buf[n:]
}

// fill performs a single Read into the spare capacity of buf, moving or
// growing the pending bytes first when there is too little room.
func (c *Conn) fill() error {
	if cap(c.buf)-len(c.buf) < minReadSize {
		size := max(2*len(c.buf), initialBufSize)
		next := make([]byte, len(c.buf), size)
		copy(next, c.buf)
		c.buf = next
	}
	n, err := c.rw.Read(c.buf[len(c.buf):cap(c.buf)])
	c.buf = c.buf[:len(c.buf)+n]
	if n > 0 {
		return nil
	}
	if err == nil {
		return io.ErrNoProgress
	}
	return err
}
