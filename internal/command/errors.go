package command

import (
	"errors"

	"github.com/loganszeto/respkv/internal/protocol"
	"github.com/loganszeto/respkv/internal/store"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArity     = errors.New("wrong number of arguments")
	ErrSyntax         = errors.New("syntax error")
	ErrInvalidExpire  = errors.New("invalid expire time")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrNotInteger     = store.ErrNotInteger
	ErrOverflow       = store.ErrOverflow
)

// ErrorFrame renders a command error the way Redis does.
func ErrorFrame(err error) protocol.Error {
	return protocol.Error("ERR " + err.Error())
}
