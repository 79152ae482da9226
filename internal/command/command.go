// Package command turns request frames into typed commands and runs them
// against a store.
package command

import "time"

// Command is one validated request. Implementations are the types in this
// file; values are only produced by FromFrame.
type Command interface {
	command()
}

type Ping struct {
	Msg    []byte
	HasMsg bool
}

type Set struct {
	Key    string
	Value  []byte
	TTL    time.Duration
	HasTTL bool
}

type Get struct {
	Key string
}

type Del struct {
	Keys []string
}

type Incr struct {
	Key string
}

type Exists struct {
	Keys []string
}

type FlushDB struct{}

type DBSize struct{}

type Keys struct {
	Pattern string
	Matcher Pattern
}

type Expire struct {
	Key string
	TTL time.Duration
}

type TTL struct {
	Key string
}

type Lolwut struct{}

func (Ping) command()    {}
func (Set) command()     {}
func (Get) command()     {}
func (Del) command()     {}
func (Incr) command()    {}
func (Exists) command()  {}
func (FlushDB) command() {}
func (DBSize) command()  {}
func (Keys) command()    {}
func (Expire) command()  {}
func (TTL) command()     {}
func (Lolwut) command()  {}

// Mutating reports whether cmd changes the keyspace.
func Mutating(cmd Command) bool {
	switch cmd.(type) {
	case Set, Del, Incr, FlushDB, Expire:
		return true
	default:
		return false
	}
}
