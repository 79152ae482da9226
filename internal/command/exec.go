package command

import (
	"time"

	"github.com/loganszeto/respkv/internal/protocol"
	"github.com/loganszeto/respkv/internal/store"
)

// LolwutText is the reply to LOLWUT.
const LolwutText = "respkv ver. 1.0.0\n"

var pong = protocol.SimpleString("PONG")

// Execute runs cmd against st and encodes the outcome. Domain errors come
// back as Error frames.
func Execute(st store.Store, cmd Command) protocol.Frame {
	switch c := cmd.(type) {
	case Ping:
		if c.HasMsg {
			return protocol.BulkString(c.Msg)
		}
		return pong
	case Set:
		if c.HasTTL {
			st.SetEx(c.Key, c.Value, c.TTL)
		} else {
			st.Set(c.Key, c.Value)
		}
		return protocol.OK
	case Get:
		val, ok := st.Get(c.Key)
		if !ok {
			return protocol.Null{}
		}
		return protocol.BulkString(val)
	case Del:
		var n int64
		for _, k := range c.Keys {
			if st.Del(k) {
				n++
			}
		}
		return protocol.Integer(n)
	case Exists:
		var n int64
		for _, k := range c.Keys {
			if st.Exists(k) {
				n++
			}
		}
		return protocol.Integer(n)
	case Incr:
		n, err := st.Incr(c.Key)
		if err != nil {
			return ErrorFrame(err)
		}
		return protocol.Integer(n)
	case FlushDB:
		st.Flush()
		return protocol.OK
	case DBSize:
		return protocol.Integer(st.Size())
	case Keys:
		keys := st.Keys(c.Matcher)
		out := make(protocol.Array, 0, len(keys))
		for _, k := range keys {
			out = append(out, protocol.BulkString(k))
		}
		return out
	case Expire:
		if st.Expire(c.Key, c.TTL) {
			return protocol.Integer(1)
		}
		return protocol.Integer(0)
	case TTL:
		left, state := st.TTL(c.Key)
		switch state {
		case store.TTLMissing:
			return protocol.Integer(-2)
		case store.TTLNoExpiry:
			return protocol.Integer(-1)
		default:
			return protocol.Integer(roundSeconds(left))
		}
	case Lolwut:
		return protocol.BulkString(LolwutText)
	default:
		return protocol.Error("ERR unsupported command")
	}
}

// roundSeconds rounds d to the nearest whole second, halves up.
func roundSeconds(d time.Duration) int64 {
	return int64((d + time.Second/2) / time.Second)
}
