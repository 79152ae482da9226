// Package client is a small RESP client for respkv servers, used by the
// command line tools and the end-to-end tests.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loganszeto/respkv/internal/conn"
	"github.com/loganszeto/respkv/internal/protocol"
)

// ReplyError is an error reply sent by the server.
type ReplyError struct {
	Msg string
}

func (e *ReplyError) Error() string {
	return e.Msg
}

// ErrUnexpectedReply means the server answered with a frame type the
// command never produces.
var ErrUnexpectedReply = errors.New("unexpected reply")

// Client serializes requests over one connection. It is safe for
// concurrent use; requests from different goroutines are not interleaved.
type Client struct {
	mu sync.Mutex
	rw io.ReadWriter
	c  *conn.Conn
}

func New(rw io.ReadWriter) *Client {
	return &Client{rw: rw, c: conn.New(rw)}
}

// Dial connects to addr. Addresses starting with ws:// or wss:// go
// through the websocket endpoint, anything else is a TCP host:port.
func Dial(ctx context.Context, addr string) (*Client, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return New(conn.NewWebSocket(ws)), nil
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(nc), nil
}

func (c *Client) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// DoFrame sends one request frame and returns the reply frame as-is,
// including Error frames.
func (c *Client) DoFrame(req protocol.Frame) (protocol.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.c.WriteFrame(req); err != nil {
		return nil, err
	}
	return c.readReply()
}

// Do sends args as a command and returns the raw reply.
func (c *Client) Do(args ...string) (protocol.Frame, error) {
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return c.DoFrame(protocol.StringArray(args...))
}

// Pipeline writes every request before reading any reply.
func (c *Client) Pipeline(reqs ...protocol.Frame) ([]protocol.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, req := range reqs {
		if err := c.c.WriteFrame(req); err != nil {
			return nil, err
		}
	}
	replies := make([]protocol.Frame, 0, len(reqs))
	for range reqs {
		f, err := c.readReply()
		if err != nil {
			return replies, err
		}
		replies = append(replies, f)
	}
	return replies, nil
}

func (c *Client) readReply() (protocol.Frame, error) {
	f, err := c.c.ReadFrame()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return f, err
}

func (c *Client) call(name string, args ...[]byte) (protocol.Frame, error) {
	f, err := c.DoFrame(protocol.Command(name, args...))
	if err != nil {
		return nil, err
	}
	if e, ok := f.(protocol.Error); ok {
		return nil, &ReplyError{Msg: string(e)}
	}
	return f, nil
}

func (c *Client) callInt(name string, args ...[]byte) (int64, error) {
	f, err := c.call(name, args...)
	if err != nil {
		return 0, err
	}
	n, ok := f.(protocol.Integer)
	if !ok {
		return 0, unexpected(name, f)
	}
	return int64(n), nil
}

func (c *Client) callOK(name string, args ...[]byte) error {
	f, err := c.call(name, args...)
	if err != nil {
		return err
	}
	if f != protocol.OK {
		return unexpected(name, f)
	}
	return nil
}

func unexpected(name string, f protocol.Frame) error {
	return fmt.Errorf("%w to %s: %s", ErrUnexpectedReply, name, protocol.Describe(f))
}

func keyArgs(keys []string) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}

func seconds(d time.Duration) []byte {
	return strconv.AppendInt(nil, int64(d/time.Second), 10)
}
