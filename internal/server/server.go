package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/loganszeto/respkv/internal/config"
	"github.com/loganszeto/respkv/internal/conn"
	"github.com/loganszeto/respkv/internal/protocol"
	"github.com/loganszeto/respkv/internal/stats"
	"github.com/loganszeto/respkv/internal/store"
)

const acceptBackoff = 50 * time.Millisecond

var errMaxClients = protocol.Error("ERR max number of clients reached")

type Server struct {
	cfg   config.ServerConfig
	db    *store.DB
	stats *stats.Stats
	log   *slog.Logger
	sem   *semaphore.Weighted

	mu     sync.Mutex
	conns  map[io.Closer]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New builds a server. Unset limits in cfg fall back to the config
// defaults, and a nil st or logger gets a private one.
func New(cfg config.ServerConfig, db *store.DB, st *stats.Stats, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if st == nil {
		st = stats.New()
	}
	if cfg.MaxConns < 1 {
		cfg.MaxConns = config.DefaultMaxConns
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = config.DefaultSweepInterval
	}
	return &Server{
		cfg:   cfg,
		db:    db,
		stats: st,
		log:   logger,
		sem:   semaphore.NewWeighted(int64(cfg.MaxConns)),
		conns: make(map[io.Closer]struct{}),
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Address())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts clients on ln and runs the expiry sweeper until ctx is
// done, then closes every client and waits for their goroutines.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("listening", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.db.RunSweeper(ctx, s.cfg.SweepInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		_ = ln.Close()
		return nil
	})
	g.Go(func() error {
		return s.acceptLoop(ctx, ln)
	})
	err := g.Wait()

	s.Shutdown()
	return err
}

// Shutdown closes all tracked clients and waits for them to finish.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Warn("accept failed", "err", err)
			time.Sleep(acceptBackoff)
			continue
		}
		if !s.sem.TryAcquire(1) {
			s.stats.ConnRejected()
			s.log.Warn("rejecting client", "remote", nc.RemoteAddr().String(), "reason", "max clients")
			go reject(nc)
			continue
		}
		if !s.track(nc) {
			s.sem.Release(1)
			_ = nc.Close()
			continue
		}
		go func() {
			defer s.sem.Release(1)
			defer s.untrack(nc)
			s.serveConn(nc, nc.RemoteAddr().String())
		}()
	}
}

func reject(nc net.Conn) {
	defer nc.Close()
	_ = nc.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.New(nc).WriteFrame(errMaxClients)
}

// track registers c for shutdown. It reports false once the server is
// shutting down.
func (s *Server) track(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c io.Closer) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}
