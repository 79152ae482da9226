package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/loganszeto/respkv/internal/config"
	"github.com/loganszeto/respkv/internal/logging"
	"github.com/loganszeto/respkv/internal/server"
	"github.com/loganszeto/respkv/internal/stats"
	"github.com/loganszeto/respkv/internal/store"
)

func main() {
	cfg, err := config.LoadServerConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	st := stats.New()
	db := store.New(store.Options{OnSweep: st.RecordExpired})
	srv := server.New(*cfg, db, st, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("shut down", "stats", st.Snapshot())
}
