package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/loganszeto/respkv/internal/conn"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWS serves RESP over a websocket. Message boundaries carry no
// meaning; the payloads form one request stream.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !s.sem.TryAcquire(1) {
		s.stats.ConnRejected()
		http.Error(w, "max number of clients reached", http.StatusServiceUnavailable)
		return
	}
	defer s.sem.Release(1)

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	st := conn.NewWebSocket(ws)
	if !s.track(st) {
		_ = st.Close()
		return
	}
	defer s.untrack(st)
	s.serveConn(st, r.RemoteAddr)
}
