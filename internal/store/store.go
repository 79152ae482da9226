package store

import (
	"errors"
	"time"
)

var (
	ErrNotInteger = errors.New("value is not an integer or out of range")
	ErrOverflow   = errors.New("increment or decrement would overflow")
)

// Matcher selects keys for Keys. glob.Glob satisfies it.
type Matcher interface {
	Match(string) bool
}

type TTLState int

const (
	TTLMissing TTLState = iota
	TTLNoExpiry
	TTLLive
)

// Store is the keyspace as seen by the command layer. Every method is a
// single atomic operation.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	SetEx(key string, value []byte, ttl time.Duration)
	Del(key string) bool
	Exists(key string) bool
	Incr(key string) (int64, error)
	Keys(m Matcher) []string
	Flush()
	Size() int
	Expire(key string, ttl time.Duration) bool
	TTL(key string) (time.Duration, TTLState)
}
