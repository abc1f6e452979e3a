package web

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/softapd/internal/broadcast"
	"github.com/lcalzada-xor/softapd/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin requests carry no Origin header; the ops surface
		// binds to localhost.
		return r.Header.Get("Origin") == "" ||
			r.Host == r.Header.Get("Origin") ||
			r.Header.Get("Origin") == "http://"+r.Host
	},
}

// WSMessage is one event pushed to connected UIs.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// handleWebSocket upgrades the connection and streams lifecycle
// events from the broadcaster until the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	topics := []string{broadcast.TopicState, broadcast.TopicClients, broadcast.TopicBlocked}
	events := s.broadcaster.Subscribe(topics...)
	done := make(chan struct{})

	// Reader loop: only used to detect the peer going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			s.broadcaster.Unsubscribe(events, topics...)
			conn.Close()
		}()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(wrap(ev)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
}

func wrap(ev any) WSMessage {
	switch ev.(type) {
	case domain.StateUpdate:
		return WSMessage{Type: "state", Payload: ev}
	case broadcast.ClientsUpdate:
		return WSMessage{Type: "clients", Payload: ev}
	case broadcast.BlockedClient:
		return WSMessage{Type: "blocked_client", Payload: ev}
	}
	return WSMessage{Type: "event", Payload: ev}
}
