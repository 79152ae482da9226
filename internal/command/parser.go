package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/loganszeto/respkv/internal/protocol"
)

const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// FromFrame validates a request frame and converts its arguments.
func FromFrame(f protocol.Frame) (Command, error) {
	arr, ok := f.(protocol.Array)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of bulk strings", ErrInvalidRequest)
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidRequest)
	}
	parts := make([][]byte, len(arr))
	for i, item := range arr {
		b, ok := item.(protocol.BulkString)
		if !ok {
			return nil, fmt.Errorf("%w: expected an array of bulk strings", ErrInvalidRequest)
		}
		parts[i] = b
	}

	name := cases.Upper(language.Und).String(string(parts[0]))
	args := parts[1:]
	switch name {
	case "PING":
		if err := arity(name, args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return Ping{Msg: args[0], HasMsg: true}, nil
		}
		return Ping{}, nil
	case "SET":
		return parseSet(args)
	case "GET":
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		return Get{Key: string(args[0])}, nil
	case "DEL":
		if err := arity(name, args, 1, -1); err != nil {
			return nil, err
		}
		return Del{Keys: keys(args)}, nil
	case "EXISTS":
		if err := arity(name, args, 1, -1); err != nil {
			return nil, err
		}
		return Exists{Keys: keys(args)}, nil
	case "INCR":
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		return Incr{Key: string(args[0])}, nil
	case "FLUSHDB":
		if err := arity(name, args, 0, 0); err != nil {
			return nil, err
		}
		return FlushDB{}, nil
	case "DBSIZE":
		if err := arity(name, args, 0, 0); err != nil {
			return nil, err
		}
		return DBSize{}, nil
	case "KEYS":
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		pattern := string(args[0])
		m, err := CompilePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidPattern, pattern)
		}
		return Keys{Pattern: pattern, Matcher: m}, nil
	case "EXPIRE":
		if err := arity(name, args, 2, 2); err != nil {
			return nil, err
		}
		secs, err := parseInt(args[1])
		if err != nil {
			return nil, err
		}
		if secs > maxTTLSeconds || secs < -maxTTLSeconds {
			return nil, fmt.Errorf("%w in 'expire' command", ErrInvalidExpire)
		}
		return Expire{Key: string(args[0]), TTL: time.Duration(secs) * time.Second}, nil
	case "TTL":
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}
		return TTL{Key: string(args[0])}, nil
	case "LOLWUT":
		if err := arity(name, args, 0, 0); err != nil {
			return nil, err
		}
		return Lolwut{}, nil
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnknownCommand, parts[0])
	}
}

// SET key value [EX seconds]
func parseSet(args [][]byte) (Command, error) {
	if len(args) != 2 && len(args) != 4 {
		if len(args) < 2 {
			return nil, arityError("SET")
		}
		return nil, ErrSyntax
	}
	cmd := Set{Key: string(args[0]), Value: args[1]}
	if len(args) == 2 {
		return cmd, nil
	}
	if !strings.EqualFold(string(args[2]), "EX") {
		return nil, ErrSyntax
	}
	secs, err := parseInt(args[3])
	if err != nil {
		return nil, err
	}
	if secs < 0 || secs > maxTTLSeconds {
		return nil, fmt.Errorf("%w in 'set' command", ErrInvalidExpire)
	}
	cmd.TTL = time.Duration(secs) * time.Second
	cmd.HasTTL = true
	return cmd, nil
}

// arity checks lo <= len(args) <= hi; a negative hi means unbounded.
func arity(name string, args [][]byte, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return arityError(name)
	}
	return nil
}

func arityError(name string) error {
	return fmt.Errorf("%w for '%s' command", ErrWrongArity, strings.ToLower(name))
}

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

func keys(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

// Pattern matches whole keys against a Redis-style glob. Matching is byte
// by byte, so `?` consumes one byte of a multi-byte UTF-8 key.
type Pattern struct {
	g glob.Glob
}

func (p Pattern) Match(key string) bool {
	return p.g.Match(widen(key))
}

// CompilePattern compiles a Redis-style glob (`*`, `?`, `[...]`, `[^...]`,
// backslash escapes). A trailing lone backslash matches itself.
func CompilePattern(pattern string) (Pattern, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
		case c == '\\':
			b.WriteString(`\\`)
		case c == '[' && i+1 < len(pattern) && pattern[i+1] == '^':
			b.WriteString("[!")
			i++
		case c == '{' || c == '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	g, err := glob.Compile(widen(b.String()))
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{g: g}, nil
}

// widen maps each byte to the rune with the same value, giving the
// rune-based matcher one symbol per byte.
func widen(s string) string {
	i := 0
	for i < len(s) && s[i] < utf8.RuneSelf {
		i++
	}
	if i == len(s) {
		return s
	}
	var b strings.Builder
	b.Grow(2 * len(s))
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		b.WriteRune(rune(s[i]))
	}
	return b.String()
}
