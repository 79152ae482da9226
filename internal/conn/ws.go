package conn

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket adapts a websocket connection to a byte stream. Incoming
// binary or text messages are concatenated; each Write is sent as one
// binary message.
type WebSocket struct {
	ws *websocket.Conn
	r  io.Reader
}

func NewWebSocket(ws *websocket.Conn) *WebSocket {
	return &WebSocket{ws: ws}
}

func (s *WebSocket) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if errors.Is(err, io.EOF) {
			s.r = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (s *WebSocket) Write(p []byte) (int, error) {
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a normal closure frame when possible and closes the
// underlying connection.
func (s *WebSocket) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.ws.Close()
}

func (s *WebSocket) SetReadDeadline(t time.Time) error {
	return s.ws.SetReadDeadline(t)
}

func (s *WebSocket) SetWriteDeadline(t time.Time) error {
	return s.ws.SetWriteDeadline(t)
}
