package protocol

import "fmt"

// Scanner finds where the first frame of a growing buffer ends without
// building it. Progress is kept between calls, so bytes already checked
// are not examined again. The zero value is ready to use.
type Scanner struct {
	off     int
	pending []int // elements still expected by each open array
}

func (s *Scanner) Reset() {
	s.off = 0
	s.pending = s.pending[:0]
}

// Scan returns the length of the first frame in buf once all of it has
// arrived, ErrIncomplete before that, or an error wrapping ErrProtocol.
// Successive calls must see the same stream, possibly extended; call Reset
// after consuming a frame.
func (s *Scanner) Scan(buf []byte) (int, error) {
	for {
		next, elems, err := s.element(buf)
		if err != nil {
			return 0, err
		}
		s.off = next
		if elems > 0 {
			s.pending = append(s.pending, elems)
			continue
		}
		for len(s.pending) > 0 {
			top := len(s.pending) - 1
			s.pending[top]--
			if s.pending[top] > 0 {
				break
			}
			s.pending = s.pending[:top]
		}
		if len(s.pending) == 0 {
			return s.off, nil
		}
	}
}

// element checks the frame header at s.off. It returns the offset past
// the element, or past the header for a non-empty array together with its
// element count.
func (s *Scanner) element(buf []byte) (int, int, error) {
	pos := s.off
	if pos >= len(buf) {
		return 0, 0, ErrIncomplete
	}
	if len(s.pending) > MaxDepth {
		return 0, 0, fmt.Errorf("%w: nesting deeper than %d", ErrProtocol, MaxDepth)
	}
	typ := buf[pos]
	switch typ {
	case '+', '-', ':', '$', '*':
	default:
		return 0, 0, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, typ)
	}
	line, next, err := readLine(buf, pos+1)
	if err != nil {
		return 0, 0, err
	}

	switch typ {
	case ':':
		if _, err := parseInteger(line); err != nil {
			return 0, 0, err
		}
	case '$':
		n, err := parseLen(line, MaxBulkLen, "bulk")
		if err != nil {
			return 0, 0, err
		}
		if n < 0 {
			return next, 0, nil
		}
		end := next + n
		if len(buf) < end+2 {
			return 0, 0, ErrIncomplete
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return 0, 0, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
		}
		return end + 2, 0, nil
	case '*':
		n, err := parseLen(line, MaxArrayLen, "array")
		if err != nil {
			return 0, 0, err
		}
		return next, max(n, 0), nil
	}
	return next, 0, nil
}
