package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aretw0/stepform/pkg/runner"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// serveWS serves GET /sessions/{id}/ws. The client sends one event per
// text message; every connection of the session receives the resulting
// frame diffs. Failures go back only to the sender as system messages.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	initial, err := s.initialMessage(r, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close()

	sub, cancel := s.Streams.Subscribe(id)
	defer cancel()
	private := make(chan []byte, streamBuffer)
	private <- initial
	done := make(chan struct{})
	go s.wsWriter(conn, sub, private, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "session_id", id, "err", err)
			}
			break
		}
		ev, err := decodeEvent(data)
		if err == nil {
			_, err = s.Apply(r.Context(), id, ev)
		}
		if err != nil {
			msg, _ := json.Marshal(runner.Message{Type: runner.MessageSystem, Text: fmt.Sprintf("error: %v", err)})
			select {
			case private <- msg:
			case <-done:
			}
		}
	}
	close(private)
	<-done
}

// wsWriter owns all writes to conn. It returns when private is closed, a
// write fails or the session's subscription ends; the last two close conn
// so the reader stops too.
func (s *Server) wsWriter(conn *websocket.Conn, sub <-chan []byte, private <-chan []byte, done chan<- struct{}) {
	defer close(done)
	write := func(msg []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, msg)
	}
	for {
		select {
		case msg, ok := <-private:
			if !ok {
				return
			}
			if err := write(msg); err != nil {
				_ = conn.Close()
				return
			}
		case msg, ok := <-sub:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				_ = conn.Close()
				return
			}
			if err := write(msg); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
