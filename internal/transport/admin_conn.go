package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/minesarena/server/internal/admin"
	"github.com/minesarena/server/internal/dispatch"
)

// adminEnvelope mirrors dispatch.ClientMessage's shape for the small set of
// admin-channel intents, which never reach the dispatcher directly.
type adminEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type adminSpectatePayload struct {
	RoomCode string `json:"roomCode"`
}

// AdminServer upgrades the admin WebSocket namespace, gating the handshake
// on a bearer token and routing admin_subscribe/admin_spectate/
// admin_leave_spectate intents to the Observer (spec.md §4.6: "the admin
// channel requires a bearer credential validated at handshake; failed
// validation closes the connection with reason 'auth failed'").
type AdminServer struct {
	hub      *Hub
	auth     *admin.Auth
	observer *admin.Observer
	upgrader websocket.Upgrader
}

// NewAdminServer constructs an AdminServer.
func NewAdminServer(hub *Hub, auth *admin.Auth, observer *admin.Observer, allowCORS bool) *AdminServer {
	return &AdminServer{
		hub:      hub,
		auth:     auth,
		observer: observer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return allowCORS },
		},
	}
}

// ServeHTTP validates the bearer token (from the Authorization header or a
// `token` query parameter, since browser WebSocket clients cannot set
// arbitrary headers on the handshake) before upgrading.
func (s *AdminServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" || s.auth.VerifyToken(token) != nil {
		http.Error(w, "auth failed", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	connID := uuid.NewString()
	var conn *Conn
	conn = NewConn(ws, connID,
		func(id string, data []byte) { s.handleMessage(id, data) },
		func(id string) {
			s.hub.Unregister(id, conn)
			s.observer.Unsubscribe(id)
		},
	)
	s.hub.Register(connID, conn)
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (s *AdminServer) handleMessage(connID string, data []byte) {
	var env adminEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.hub.SendTo(connID, dispatch.ServerMessage{Type: "admin_error", Payload: map[string]string{"error": "malformed message"}})
		return
	}

	switch env.Type {
	case "admin_subscribe":
		s.observer.Subscribe(connID)
	case "admin_unsubscribe":
		s.observer.Unsubscribe(connID)
	case "admin_spectate":
		var p adminSpectatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.RoomCode == "" {
			s.hub.SendTo(connID, dispatch.ServerMessage{Type: "admin_error", Payload: map[string]string{"error": "malformed admin_spectate payload"}})
			return
		}
		s.observer.JoinSpectate(connID, p.RoomCode)
	case "admin_leave_spectate":
		s.observer.LeaveSpectate(connID)
	default:
		s.hub.SendTo(connID, dispatch.ServerMessage{Type: "admin_error", Payload: map[string]string{"error": "unknown message type"}})
	}
}
