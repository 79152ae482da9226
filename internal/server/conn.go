package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/loganszeto/respkv/internal/conn"
	"github.com/loganszeto/respkv/internal/protocol"
)

// stream is what a client transport must provide. net.Conn satisfies it.
type stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

func (s *Server) serveConn(st stream, remote string) {
	defer st.Close()
	s.stats.ConnOpened()
	defer s.stats.ConnClosed()

	log := s.log.With("remote", remote)
	log.Debug("client connected")
	c := conn.New(st)
	for {
		if s.cfg.ReadTimeout > 0 {
			_ = st.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		f, err := c.ReadFrame()
		if err != nil {
			s.readFailed(st, c, log, err)
			return
		}
		if log.Enabled(context.Background(), slog.LevelDebug) {
			log.Debug("request", "frame", protocol.Describe(f))
		}
		reply := s.dispatch(f)
		if err := s.write(st, c, reply); err != nil {
			log.Debug("write failed", "err", err)
			return
		}
	}
}

func (s *Server) readFailed(st stream, c *conn.Conn, log *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		log.Debug("client disconnected")
	case errors.Is(err, protocol.ErrProtocol):
		s.stats.RecordProtocolError()
		log.Warn("closing client after protocol error", "err", err)
		msg := strings.TrimPrefix(err.Error(), protocol.ErrProtocol.Error()+": ")
		_ = s.write(st, c, protocol.Error("ERR Protocol error: "+msg))
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Info("closing idle client", "timeout", s.cfg.ReadTimeout)
	default:
		log.Debug("read failed", "err", err)
	}
}

func (s *Server) write(st stream, c *conn.Conn, f protocol.Frame) error {
	if s.cfg.WriteTimeout > 0 {
		_ = st.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return c.WriteFrame(f)
}
