package transport

import "net/http"

// RegisterRoutes mounts the player and admin WebSocket endpoints on mux
// (spec.md §4.6: "Two logical channels... the player channel and the admin
// channel").
func RegisterRoutes(mux *http.ServeMux, players *PlayerServer, admins *AdminServer) {
	mux.Handle("/ws/player", players)
	mux.Handle("/ws/admin", admins)
}
