package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

func (s *Server) wsUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if s.corsOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == "" || r.Header.Get("Origin") == s.corsOrigin
		},
	}
}

// handleSessionStream pushes a session-status snapshot over a websocket on
// every engine state change, starting with the current state.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	up := s.wsUpgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	ch := s.engine.Subscribe()
	defer s.engine.Unsubscribe(ch)

	// Reads are discarded; a read error means the client went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(s.engine.Sessions()); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(snapshot); err != nil {
				log.Printf("session stream write: %v", err)
				return
			}
		}
	}
}
