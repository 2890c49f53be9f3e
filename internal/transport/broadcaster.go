// Package transport wires WebSocket connections to the dispatcher and admin
// observer: reading frames, encoding the JSON envelope, and tracking the
// live connection set each Broadcaster fans out to (spec.md §4.3, §6).
package transport

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/minesarena/server/internal/dispatch"
)

// Hub tracks a namespace of live connections and implements
// dispatch.Broadcaster by encoding and queueing onto each connection's own
// send channel. Two Hubs exist: one for the player/public-spectator
// namespace, one for the admin namespace (spec.md §9 Design Notes: prefer a
// Broadcaster value threaded through constructors over a module-global).
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

// Register adds conn under connID, replacing any bookkeeping a caller may
// still hold on a previous connection under that ID.
func (h *Hub) Register(connID string, conn *Conn) {
	h.mu.Lock()
	h.conns[connID] = conn
	h.mu.Unlock()
}

// Unregister removes connID, if conn still owns that slot (guards against a
// reconnect under the same ID racing a stale cleanup).
func (h *Hub) Unregister(connID string, conn *Conn) {
	h.mu.Lock()
	if h.conns[connID] == conn {
		delete(h.conns, connID)
	}
	h.mu.Unlock()
}

// SendTo implements dispatch.Broadcaster: encode msg and queue it on
// connID's outgoing channel, dropping silently if the connection is gone or
// its buffer is full (a slow or vanished client should never block the
// dispatcher).
func (h *Hub) SendTo(connID string, msg dispatch.ServerMessage) {
	h.mu.RLock()
	conn := h.conns[connID]
	h.mu.RUnlock()
	if conn == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("transport: failed to encode %s message: %v", msg.Type, err)
		return
	}
	conn.Send(data)
}
