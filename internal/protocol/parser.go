package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	MaxBulkLen  = 512 * 1024 * 1024
	MaxArrayLen = 1024 * 1024
	MaxDepth    = 32
	// MaxLineLen bounds how far a type line may run without a CRLF.
	MaxLineLen = 64 * 1024
)

var (
	// ErrIncomplete means the buffer holds a prefix of a valid frame.
	ErrIncomplete = errors.New("incomplete frame")
	ErrProtocol   = errors.New("protocol error")
)

// Parse decodes the first frame in buf. It returns the frame and the number
// of bytes it occupies, ErrIncomplete when more input is needed, or an error
// wrapping ErrProtocol when the input can never become valid. buf is never
// modified and the returned frame does not alias it.
func Parse(buf []byte) (Frame, int, error) {
	return parse(buf, 0, 0)
}

func parse(buf []byte, pos, depth int) (Frame, int, error) {
	if pos >= len(buf) {
		return nil, 0, ErrIncomplete
	}
	if depth > MaxDepth {
		return nil, 0, fmt.Errorf("%w: nesting deeper than %d", ErrProtocol, MaxDepth)
	}
	typ := buf[pos]
	switch typ {
	case '+', '-', ':', '$', '*':
	default:
		return nil, 0, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, typ)
	}
	line, next, err := readLine(buf, pos+1)
	if err != nil {
		return nil, 0, err
	}

	switch typ {
	case '+':
		return SimpleString(line), next, nil
	case '-':
		return Error(line), next, nil
	case ':':
		n, err := parseInteger(line)
		if err != nil {
			return nil, 0, err
		}
		return Integer(n), next, nil
	case '$':
		n, err := parseLen(line, MaxBulkLen, "bulk")
		if err != nil {
			return nil, 0, err
		}
		if n < 0 {
			return Null{}, next, nil
		}
		end := next + n
		if len(buf) < end+2 {
			return nil, 0, ErrIncomplete
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return nil, 0, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
		}
		data := make([]byte, n)
		copy(data, buf[next:end])
		return BulkString(data), end + 2, nil
	default:
		n, err := parseLen(line, MaxArrayLen, "array")
		if err != nil {
			return nil, 0, err
		}
		if n < 0 {
			return NullArray{}, next, nil
		}
		items := make(Array, 0, min(n, 64))
		for i := 0; i < n; i++ {
			item, end, err := parse(buf, next, depth+1)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
			next = end
		}
		return items, next, nil
	}
}

// readLine returns the bytes between pos and the next CRLF and the offset
// just past it. A bare CR or LF inside the line is a protocol error.
func readLine(buf []byte, pos int) ([]byte, int, error) {
	for i := pos; i < len(buf); i++ {
		switch buf[i] {
		case '\n':
			return nil, 0, fmt.Errorf("%w: unexpected LF", ErrProtocol)
		case '\r':
			if i+1 == len(buf) {
				return nil, 0, ErrIncomplete
			}
			if buf[i+1] != '\n' {
				return nil, 0, fmt.Errorf("%w: CR not followed by LF", ErrProtocol)
			}
			return buf[pos:i], i + 2, nil
		}
	}
	if len(buf)-pos > MaxLineLen {
		return nil, 0, fmt.Errorf("%w: line longer than %d bytes", ErrProtocol, MaxLineLen)
	}
	return nil, 0, ErrIncomplete
}

func parseInteger(line []byte) (int64, error) {
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
	}
	return n, nil
}

// parseLen accepts -1 (null) or 0..limit written as plain decimal digits
// without sign or leading zeros.
func parseLen(line []byte, limit int, what string) (int, error) {
	if string(line) == "-1" {
		return -1, nil
	}
	if !plainDecimal(line) {
		return 0, fmt.Errorf("%w: invalid %s length %q", ErrProtocol, what, line)
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil || n > int64(limit) {
		return 0, fmt.Errorf("%w: %s length %q exceeds %d", ErrProtocol, what, line, limit)
	}
	return int(n), nil
}

func plainDecimal(b []byte) bool {
	if len(b) == 0 || (b[0] == '0' && len(b) > 1) {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
