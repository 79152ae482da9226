package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/loganszeto/respkv/internal/client"
	"github.com/loganszeto/respkv/internal/config"
	"github.com/loganszeto/respkv/internal/logging"
	"github.com/loganszeto/respkv/internal/protocol"
)

func main() {
	cfg, err := config.LoadClientConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel, "text", os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	c, err := client.Dial(ctx, cfg.Addr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()
	logger.Debug("connected", "addr", cfg.Addr)

	if flag.NArg() > 0 {
		reply, err := c.Do(flag.Args()...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "request: %v\n", err)
			os.Exit(1)
		}
		printReply(reply)
		if _, ok := reply.(protocol.Error); ok {
			os.Exit(1)
		}
		return
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		args := strings.Fields(in.Text())
		if len(args) == 0 {
			continue
		}
		if strings.EqualFold(args[0], "QUIT") || strings.EqualFold(args[0], "EXIT") {
			return
		}
		reply, err := c.Do(args...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "request: %v\n", err)
			return
		}
		printReply(reply)
	}
}

func printReply(f protocol.Frame) {
	arr, ok := f.(protocol.Array)
	if !ok || len(arr) == 0 {
		fmt.Println(protocol.Describe(f))
		return
	}
	for i, item := range arr {
		fmt.Printf("%d) %s\n", i+1, protocol.Describe(item))
	}
}
