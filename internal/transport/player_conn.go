package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/minesarena/server/internal/dispatch"
)

// PlayerServer upgrades and tracks the player/public-spectator WebSocket
// namespace, forwarding every inbound frame to the dispatcher.
type PlayerServer struct {
	hub        *Hub
	dispatcher *dispatch.Dispatcher
	upgrader   websocket.Upgrader
}

// NewPlayerServer constructs a PlayerServer. allowCORS controls whether
// cross-origin WebSocket handshakes are accepted (spec.md §6.4 ENABLE_CORS).
func NewPlayerServer(hub *Hub, dispatcher *dispatch.Dispatcher, allowCORS bool) *PlayerServer {
	return &PlayerServer{
		hub:        hub,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return allowCORS },
		},
	}
}

// ServeHTTP upgrades the connection and assigns it a fresh connection ID,
// the identity the room registry and dispatcher key every lookup on.
func (s *PlayerServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	connID := uuid.NewString()
	var conn *Conn
	conn = NewConn(ws, connID,
		func(id string, data []byte) { s.dispatcher.Dispatch(id, data) },
		func(id string) {
			s.hub.Unregister(id, conn)
			s.dispatcher.HandleDisconnect(id)
		},
	)
	s.hub.Register(connID, conn)
}
