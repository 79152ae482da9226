package config

import (
	"flag"
	"io"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig(newFlagSet(), nil, envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != "127.0.0.1:6379" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
	if cfg.MaxConns != DefaultMaxConns || cfg.SweepInterval != time.Second || cfg.ReadTimeout != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadServerConfigPrecedence(t *testing.T) {
	env := envMap(map[string]string{
		"KV_PORT":           "7000",
		"KV_MAX_CONNS":      "5",
		"KV_SWEEP_INTERVAL": "250ms",
		"KV_LOG_LEVEL":      "debug",
	})
	cfg, err := LoadServerConfig(newFlagSet(), []string{"-port", "7100", "-log_format", "json"}, env)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 7100 {
		t.Fatalf("flag should override env, got port %d", cfg.Port)
	}
	if cfg.MaxConns != 5 || cfg.SweepInterval != 250*time.Millisecond || cfg.LogLevel != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("flag not applied: %+v", cfg)
	}
}

func TestLoadServerConfigBadEnv(t *testing.T) {
	if _, err := LoadServerConfig(newFlagSet(), nil, envMap(map[string]string{"KV_PORT": "many"})); err == nil {
		t.Fatal("expected an error for a non-numeric KV_PORT")
	}
	if _, err := LoadServerConfig(newFlagSet(), nil, envMap(map[string]string{"KV_READ_TIMEOUT": "5"})); err == nil {
		t.Fatal("expected an error for a unitless KV_READ_TIMEOUT")
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"port", func(c *ServerConfig) { c.Port = 70000 }},
		{"max conns", func(c *ServerConfig) { c.MaxConns = 0 }},
		{"read timeout", func(c *ServerConfig) { c.ReadTimeout = -time.Second }},
		{"sweep", func(c *ServerConfig) { c.SweepInterval = 0 }},
		{"log level", func(c *ServerConfig) { c.LogLevel = "loud" }},
		{"log format", func(c *ServerConfig) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadClientConfig(t *testing.T) {
	cfg, err := LoadClientConfig(newFlagSet(), []string{"GET", "k"}, envMap(map[string]string{"KV_ADDR": "10.0.0.1:6380"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "10.0.0.1:6380" || cfg.DialTimeout != DefaultDialTimeout {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.Addr = "ws://127.0.0.1:8080/ws"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate websocket address: %v", err)
	}
	for _, addr := range []string{"nohostport", "ws://"} {
		cfg.Addr = addr
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected an invalid address error for %q", addr)
		}
	}
}
