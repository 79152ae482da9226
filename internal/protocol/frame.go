// Package protocol implements the RESP2 wire format: a closed set of frame
// types plus a parser and serializer that never perform I/O.
package protocol

import (
	"strconv"
	"strings"
)

// Frame is one decoded RESP value. The set of implementations is closed:
// SimpleString, Error, Integer, BulkString, Null, Array and NullArray.
type Frame interface {
	frame()
}

type SimpleString string

type Error string

type Integer int64

// BulkString holds a binary-safe payload. An empty payload is `$0\r\n\r\n`;
// use Null for `$-1\r\n`.
type BulkString []byte

// Null is the null bulk string.
type Null struct{}

type Array []Frame

// NullArray is `*-1\r\n`.
type NullArray struct{}

func (SimpleString) frame() {}
func (Error) frame()        {}
func (Integer) frame()      {}
func (BulkString) frame()   {}
func (Null) frame()         {}
func (Array) frame()        {}
func (NullArray) frame()    {}

const OK = SimpleString("OK")

// Command builds a request frame: an array of bulk strings.
func Command(name string, args ...[]byte) Array {
	out := make(Array, 0, len(args)+1)
	out = append(out, BulkString(name))
	for _, a := range args {
		out = append(out, BulkString(a))
	}
	return out
}

func StringArray(items ...string) Array {
	out := make(Array, 0, len(items))
	for _, s := range items {
		out = append(out, BulkString(s))
	}
	return out
}

// Describe renders a frame for logs and the CLI.
func Describe(f Frame) string {
	var b strings.Builder
	describe(&b, f)
	return b.String()
}

func describe(b *strings.Builder, f Frame) {
	switch v := f.(type) {
	case SimpleString:
		b.WriteString(string(v))
	case Error:
		b.WriteString("(error) ")
		b.WriteString(string(v))
	case Integer:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case BulkString:
		b.WriteString(strconv.Quote(string(v)))
	case Null, NullArray:
		b.WriteString("(nil)")
	case Array:
		if len(v) == 0 {
			b.WriteString("(empty array)")
			return
		}
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(b, item)
		}
		b.WriteByte(']')
	default:
		b.WriteString("(unknown)")
	}
}
