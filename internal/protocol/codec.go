package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidFrame = errors.New("invalid frame")

// Append serializes f onto dst.
func Append(dst []byte, f Frame) ([]byte, error) {
	switch v := f.(type) {
	case SimpleString:
		return appendLine(dst, '+', string(v))
	case Error:
		return appendLine(dst, '-', string(v))
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, int64(v), 10)
		return append(dst, '\r', '\n'), nil
	case BulkString:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v...)
		return append(dst, '\r', '\n'), nil
	case Null:
		return append(dst, "$-1\r\n"...), nil
	case NullArray:
		return append(dst, "*-1\r\n"...), nil
	case Array:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v)), 10)
		dst = append(dst, '\r', '\n')
		var err error
		for _, item := range v {
			if dst, err = Append(dst, item); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case nil:
		return nil, fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidFrame, f)
	}
}

func appendLine(dst []byte, typ byte, s string) ([]byte, error) {
	if strings.ContainsAny(s, "\r\n") {
		return nil, fmt.Errorf("%w: %q contains CR or LF", ErrInvalidFrame, s)
	}
	dst = append(dst, typ)
	dst = append(dst, s...)
	return append(dst, '\r', '\n'), nil
}

func Encode(f Frame) ([]byte, error) {
	return Append(nil, f)
}

// WriteFrame encodes f into w without flushing.
func WriteFrame(w *bufio.Writer, f Frame) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
