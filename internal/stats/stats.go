package stats

import "sync/atomic"

type Stats struct {
	commands    atomic.Int64
	errors      atomic.Int64
	writes      atomic.Int64
	hits        atomic.Int64
	misses      atomic.Int64
	accepted    atomic.Int64
	rejected    atomic.Int64
	active      atomic.Int64
	protoErrors atomic.Int64
	expired     atomic.Int64
}

func New() *Stats {
	return &Stats{}
}

func (s *Stats) RecordCommand() {
	s.commands.Add(1)
}

// RecordError counts a command that was answered with an Error frame.
func (s *Stats) RecordError() {
	s.errors.Add(1)
}

// RecordWrite counts a successful keyspace mutation.
func (s *Stats) RecordWrite() {
	s.writes.Add(1)
}

func (s *Stats) RecordGet(hit bool) {
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
}

func (s *Stats) RecordProtocolError() {
	s.protoErrors.Add(1)
}

func (s *Stats) ConnOpened() {
	s.accepted.Add(1)
	s.active.Add(1)
}

func (s *Stats) ConnClosed() {
	s.active.Add(-1)
}

func (s *Stats) ConnRejected() {
	s.rejected.Add(1)
}

func (s *Stats) RecordExpired(n int) {
	s.expired.Add(int64(n))
}

func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"commands":             s.commands.Load(),
		"errors":               s.errors.Load(),
		"writes":               s.writes.Load(),
		"keyspace_hits":        s.hits.Load(),
		"keyspace_misses":      s.misses.Load(),
		"connections_accepted": s.accepted.Load(),
		"connections_rejected": s.rejected.Load(),
		"connections_active":   s.active.Load(),
		"protocol_errors":      s.protoErrors.Load(),
		"expired_keys":         s.expired.Load(),
	}
}
