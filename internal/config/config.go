// Package config loads server and client settings.
//
// Precedence, highest first: command-line flags, KV_* environment
// variables, defaults. Environment values that fail to parse are reported
// as errors rather than silently ignored.
package config

import (
	"flag"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 6379
	DefaultMaxConns      = 1000
	DefaultWriteTimeout  = 10 * time.Second
	DefaultSweepInterval = time.Second
	DefaultDialTimeout   = 5 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

type ServerConfig struct {
	Host          string
	Port          int
	MaxConns      int
	ReadTimeout   time.Duration // idle limit between requests, 0 disables
	WriteTimeout  time.Duration // 0 disables
	SweepInterval time.Duration
	LogLevel      string
	LogFormat     string
}

type ClientConfig struct {
	Addr        string
	DialTimeout time.Duration
	LogLevel    string
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:          DefaultHost,
		Port:          DefaultPort,
		MaxConns:      DefaultMaxConns,
		WriteTimeout:  DefaultWriteTimeout,
		SweepInterval: DefaultSweepInterval,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// LoadServerConfig applies environment overrides from getenv, then parses
// args with fs.
func LoadServerConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	env := envReader{getenv: getenv}
	env.str("KV_HOST", &cfg.Host)
	env.integer("KV_PORT", &cfg.Port)
	env.integer("KV_MAX_CONNS", &cfg.MaxConns)
	env.duration("KV_READ_TIMEOUT", &cfg.ReadTimeout)
	env.duration("KV_WRITE_TIMEOUT", &cfg.WriteTimeout)
	env.duration("KV_SWEEP_INTERVAL", &cfg.SweepInterval)
	env.str("KV_LOG_LEVEL", &cfg.LogLevel)
	env.str("KV_LOG_FORMAT", &cfg.LogFormat)
	if env.err != nil {
		return nil, env.err
	}

	fs.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	fs.IntVar(&cfg.MaxConns, "max_conns", cfg.MaxConns, "maximum concurrent clients")
	fs.DurationVar(&cfg.ReadTimeout, "read_timeout", cfg.ReadTimeout, "close clients idle for this long (0 disables)")
	fs.DurationVar(&cfg.WriteTimeout, "write_timeout", cfg.WriteTimeout, "reply write deadline (0 disables)")
	fs.DurationVar(&cfg.SweepInterval, "sweep_interval", cfg.SweepInterval, "expired key sweep period")
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log_format", cfg.LogFormat, "text or json")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClientConfig reads KV_ADDR and KV_DIAL_TIMEOUT, then the -addr,
// -dial_timeout and -log_level flags.
func LoadClientConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (*ClientConfig, error) {
	cfg := &ClientConfig{
		Addr:        net.JoinHostPort(DefaultHost, strconv.Itoa(DefaultPort)),
		DialTimeout: DefaultDialTimeout,
		LogLevel:    "warn",
	}
	env := envReader{getenv: getenv}
	env.str("KV_ADDR", &cfg.Addr)
	env.duration("KV_DIAL_TIMEOUT", &cfg.DialTimeout)
	env.str("KV_LOG_LEVEL", &cfg.LogLevel)
	if env.err != nil {
		return nil, env.err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "server address")
	fs.DurationVar(&cfg.DialTimeout, "dial_timeout", cfg.DialTimeout, "connect timeout")
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("max connections must be positive: %d", c.MaxConns)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read timeout must not be negative: %s", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write timeout must not be negative: %s", c.WriteTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive: %s", c.SweepInterval)
	}
	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	return nil
}

// Validate accepts a TCP host:port or a ws:// or wss:// URL.
func (c *ClientConfig) Validate() error {
	if strings.HasPrefix(c.Addr, "ws://") || strings.HasPrefix(c.Addr, "wss://") {
		u, err := url.Parse(c.Addr)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid websocket address %q", c.Addr)
		}
	} else if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Addr, err)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive: %s", c.DialTimeout)
	}
	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// envReader keeps the first parse error so callers check once.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.getenv == nil {
		return "", false
	}
	val := strings.TrimSpace(e.getenv(key))
	return val, val != ""
}

func (e *envReader) str(key string, dst *string) {
	if val, ok := e.lookup(key); ok {
		*dst = val
	}
}

func (e *envReader) integer(key string, dst *int) {
	val, ok := e.lookup(key)
	if !ok || e.err != nil {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) duration(key string, dst *time.Duration) {
	val, ok := e.lookup(key)
	if !ok || e.err != nil {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}
