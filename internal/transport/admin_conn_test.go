package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/minesarena/server/internal/admin"
	"github.com/minesarena/server/internal/room"
)

func newTestAdminServer(t *testing.T) (*httptest.Server, *admin.Auth) {
	t.Helper()

	registry := room.NewRegistry(6)
	auth := admin.NewAuth("admin", "s3cret", "signing-key")
	adminHub := NewHub()
	observer := admin.NewObserver(registry, adminHub)
	admins := NewAdminServer(adminHub, auth, observer, true)

	mux := http.NewServeMux()
	mux.Handle("/ws/admin", admins)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts, auth
}

func TestAdminConn_RejectsMissingToken(t *testing.T) {
	ts, _ := newTestAdminServer(t)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws/admin"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected dial without a token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestAdminConn_AcceptsValidTokenAndSubscribes(t *testing.T) {
	ts, auth := newTestAdminServer(t)

	token, err := auth.IssueToken("admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws/admin?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"admin_subscribe","payload":{}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read admin_rooms_update: %v", err)
	}
	if !strings.Contains(string(data), "admin_rooms_update") {
		t.Fatalf("expected admin_rooms_update, got %s", data)
	}
}
