package client

import (
	"time"

	"github.com/loganszeto/respkv/internal/protocol"
)

// Ping returns PONG, or msg echoed back when given.
func (c *Client) Ping(msg ...string) (string, error) {
	f, err := c.call("PING", keyArgs(msg)...)
	if err != nil {
		return "", err
	}
	switch v := f.(type) {
	case protocol.SimpleString:
		return string(v), nil
	case protocol.BulkString:
		return string(v), nil
	}
	return "", unexpected("PING", f)
}

// Get reports false when the key does not exist.
func (c *Client) Get(key string) ([]byte, bool, error) {
	f, err := c.call("GET", []byte(key))
	if err != nil {
		return nil, false, err
	}
	switch v := f.(type) {
	case protocol.BulkString:
		return []byte(v), true, nil
	case protocol.Null:
		return nil, false, nil
	}
	return nil, false, unexpected("GET", f)
}

func (c *Client) Set(key string, value []byte) error {
	return c.callOK("SET", []byte(key), value)
}

// SetEx stores value with a time to live truncated to whole seconds.
func (c *Client) SetEx(key string, value []byte, ttl time.Duration) error {
	return c.callOK("SET", []byte(key), value, []byte("EX"), seconds(ttl))
}

func (c *Client) Del(keys ...string) (int64, error) {
	return c.callInt("DEL", keyArgs(keys)...)
}

func (c *Client) Exists(keys ...string) (int64, error) {
	return c.callInt("EXISTS", keyArgs(keys)...)
}

func (c *Client) Incr(key string) (int64, error) {
	return c.callInt("INCR", []byte(key))
}

func (c *Client) FlushDB() error {
	return c.callOK("FLUSHDB")
}

func (c *Client) DBSize() (int64, error) {
	return c.callInt("DBSIZE")
}

func (c *Client) Keys(pattern string) ([]string, error) {
	f, err := c.call("KEYS", []byte(pattern))
	if err != nil {
		return nil, err
	}
	arr, ok := f.(protocol.Array)
	if !ok {
		return nil, unexpected("KEYS", f)
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		b, ok := item.(protocol.BulkString)
		if !ok {
			return nil, unexpected("KEYS", f)
		}
		out = append(out, string(b))
	}
	return out, nil
}

// Expire reports whether a timeout was set.
func (c *Client) Expire(key string, ttl time.Duration) (bool, error) {
	n, err := c.callInt("EXPIRE", []byte(key), seconds(ttl))
	return n == 1, err
}

// TTL returns the remaining seconds, -1 for a key without expiry and -2
// for a missing key.
func (c *Client) TTL(key string) (int64, error) {
	return c.callInt("TTL", []byte(key))
}

func (c *Client) Lolwut() (string, error) {
	f, err := c.call("LOLWUT")
	if err != nil {
		return "", err
	}
	b, ok := f.(protocol.BulkString)
	if !ok {
		return "", unexpected("LOLWUT", f)
	}
	return string(b), nil
}
