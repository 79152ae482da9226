package server

import (
	"github.com/loganszeto/respkv/internal/command"
	"github.com/loganszeto/respkv/internal/protocol"
	"github.com/loganszeto/respkv/internal/stats"
	"github.com/loganszeto/respkv/internal/store"
)

func (s *Server) dispatch(f protocol.Frame) protocol.Frame {
	return Dispatch(s.db, s.stats, f)
}

// Dispatch interprets one request frame against st and returns the reply.
// Command errors become Error frames; nothing here closes the client.
// counters may be nil.
func Dispatch(st store.Store, counters *stats.Stats, f protocol.Frame) protocol.Frame {
	if counters == nil {
		counters = stats.New()
	}
	counters.RecordCommand()
	cmd, err := command.FromFrame(f)
	if err != nil {
		counters.RecordError()
		return command.ErrorFrame(err)
	}
	reply := command.Execute(st, cmd)
	if _, ok := reply.(protocol.Error); ok {
		counters.RecordError()
	} else if command.Mutating(cmd) {
		counters.RecordWrite()
	}
	if _, ok := cmd.(command.Get); ok {
		_, miss := reply.(protocol.Null)
		counters.RecordGet(!miss)
	}
	return reply
}
