package store

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/loganszeto/respkv/internal/util"
)

type Options struct {
	Clock util.Clock
	// OnSweep, when set, is called with the number of keys each sweep
	// removed.
	OnSweep func(removed int)
}

// DB is the shared keyspace. Share it by pointer; the zero value is not
// usable.
type DB struct {
	mu      sync.RWMutex
	m       map[string]entry
	clock   util.Clock
	onSweep func(int)
}

var _ Store = (*DB)(nil)

func New(opts Options) *DB {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &DB{
		m:       make(map[string]entry),
		clock:   clock,
		onSweep: opts.OnSweep,
	}
}

// lookup returns the live entry for key. Callers hold mu.
func (db *DB) lookup(key string, now time.Time) (entry, bool) {
	ent, ok := db.m[key]
	if !ok || ent.expired(now) {
		return entry{}, false
	}
	return ent, true
}

func (db *DB) Get(key string) ([]byte, bool) {
	now := db.clock.Now()
	db.mu.RLock()
	ent, ok := db.lookup(key, now)
	db.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// values are never mutated in place, so the copy can happen unlocked
	out := make([]byte, len(ent.value))
	copy(out, ent.value)
	return out, true
}

func (db *DB) Set(key string, value []byte) {
	db.put(key, value, time.Time{})
}

// SetEx stores value with a deadline of now+ttl. A ttl of zero or less
// leaves the key already expired.
func (db *DB) SetEx(key string, value []byte, ttl time.Duration) {
	db.put(key, value, db.clock.Now().Add(ttl))
}

func (db *DB) put(key string, value []byte, expiresAt time.Time) {
	buf := make([]byte, len(value))
	copy(buf, value)
	db.mu.Lock()
	db.m[key] = entry{value: buf, expiresAt: expiresAt}
	db.mu.Unlock()
}

// Del removes key and reports whether it was live. Expired entries are
// removed too but do not count.
func (db *DB) Del(key string) bool {
	now := db.clock.Now()
	db.mu.Lock()
	defer db.mu.Unlock()
	ent, ok := db.m[key]
	if !ok {
		return false
	}
	delete(db.m, key)
	return !ent.expired(now)
}

func (db *DB) Exists(key string) bool {
	now := db.clock.Now()
	db.mu.RLock()
	_, ok := db.lookup(key, now)
	db.mu.RUnlock()
	return ok
}

// Incr adds one to the base-10 integer stored at key. A missing key counts
// as zero. The deadline of a live key is kept.
func (db *DB) Incr(key string) (int64, error) {
	now := db.clock.Now()
	db.mu.Lock()
	defer db.mu.Unlock()

	ent, ok := db.lookup(key, now)
	var cur int64
	if ok {
		n, err := strconv.ParseInt(string(ent.value), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = n
	}
	if cur == math.MaxInt64 {
		return 0, ErrOverflow
	}
	cur++
	db.m[key] = entry{
		value:     strconv.AppendInt(nil, cur, 10),
		expiresAt: ent.expiresAt,
	}
	return cur, nil
}

// Keys returns the live keys accepted by m, sorted.
func (db *DB) Keys(m Matcher) []string {
	now := db.clock.Now()
	out := make([]string, 0)
	db.mu.RLock()
	for k, ent := range db.m {
		if ent.expired(now) || !m.Match(k) {
			continue
		}
		out = append(out, k)
	}
	db.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (db *DB) Flush() {
	db.mu.Lock()
	db.m = make(map[string]entry)
	db.mu.Unlock()
}

// Size counts live keys.
func (db *DB) Size() int {
	now := db.clock.Now()
	db.mu.RLock()
	defer db.mu.RUnlock()
	n := 0
	for _, ent := range db.m {
		if !ent.expired(now) {
			n++
		}
	}
	return n
}

// Expire sets the deadline of a live key to now+ttl.
func (db *DB) Expire(key string, ttl time.Duration) bool {
	now := db.clock.Now()
	db.mu.Lock()
	defer db.mu.Unlock()
	ent, ok := db.lookup(key, now)
	if !ok {
		return false
	}
	ent.expiresAt = now.Add(ttl)
	db.m[key] = ent
	return true
}

func (db *DB) TTL(key string) (time.Duration, TTLState) {
	now := db.clock.Now()
	db.mu.RLock()
	ent, ok := db.lookup(key, now)
	db.mu.RUnlock()
	switch {
	case !ok:
		return 0, TTLMissing
	case ent.expiresAt.IsZero():
		return 0, TTLNoExpiry
	default:
		return ent.expiresAt.Sub(now), TTLLive
	}
}

// Sweep physically removes expired entries and returns how many it
// dropped. Reads never depend on it.
func (db *DB) Sweep() int {
	now := db.clock.Now()
	db.mu.Lock()
	removed := 0
	for k, ent := range db.m {
		if ent.expired(now) {
			delete(db.m, k)
			removed++
		}
	}
	db.mu.Unlock()
	if db.onSweep != nil {
		db.onSweep(removed)
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (db *DB) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.Sweep()
		}
	}
}
