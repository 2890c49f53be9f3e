package admin

import (
	"sync"

	"github.com/minesarena/server/internal/dispatch"
	"github.com/minesarena/server/internal/room"
)

// Observer maintains the admin rooms-stats subscription set and the
// admin-spectate membership map, and pushes both kinds of update to admin
// connections (spec.md §4.5).
type Observer struct {
	mu          sync.Mutex
	subscribers map[string]bool   // connID -> subscribed to admin_rooms_update
	spectating  map[string]string // connID -> room code being admin-spectated

	registry    *room.Registry
	broadcaster dispatch.Broadcaster
}

// NewObserver constructs an Observer. broadcaster delivers to admin
// WebSocket connections specifically, kept separate from the player/public
// spectator Broadcaster per spec.md §9 Design Notes.
func NewObserver(registry *room.Registry, broadcaster dispatch.Broadcaster) *Observer {
	return &Observer{
		subscribers: make(map[string]bool),
		spectating:  make(map[string]string),
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// Subscribe adds connID to the rooms-stats subscription set and pushes an
// immediate snapshot (spec.md §4.5: "Stats pushes occur (a) immediately on
// subscription").
func (o *Observer) Subscribe(connID string) {
	o.mu.Lock()
	o.subscribers[connID] = true
	o.mu.Unlock()

	o.broadcaster.SendTo(connID, o.buildRoomsUpdate())
}

// Unsubscribe removes connID from every admin tracking set, used on admin
// disconnect.
func (o *Observer) Unsubscribe(connID string) {
	o.mu.Lock()
	delete(o.subscribers, connID)
	delete(o.spectating, connID)
	o.mu.Unlock()
}

// JoinSpectate marks connID as admin-spectating roomCode and pushes the
// god-view snapshot immediately (spec.md §4.5: "Admin spectators receive
// the god-view snapshot on join").
func (o *Observer) JoinSpectate(connID, roomCode string) {
	o.mu.Lock()
	o.spectating[connID] = roomCode
	o.mu.Unlock()

	r, found := o.registry.GetByCode(roomCode)
	if !found {
		o.broadcaster.SendTo(connID, dispatch.ServerMessage{Type: "admin_error", Payload: map[string]string{"error": "room not found"}})
		return
	}

	r.Lock()
	var hostName, guestName string
	if r.Host != nil {
		hostName = r.Host.Name
	}
	if r.Guest != nil {
		guestName = r.Guest.Name
	}
	gameState := r.GameState
	matchStats := r.MatchStats
	var snapshot any
	if r.Game != nil {
		snapshot = r.Game.GetFullGridForSpectator()
	}
	r.Unlock()

	o.broadcaster.SendTo(connID, dispatch.ServerMessage{Type: "admin_spectate_joined", Payload: adminSpectateJoinedPayload{
		RoomCode: roomCode, HostName: hostName, GuestName: guestName,
		GameState: gameState, Game: snapshot, MatchStats: matchStats,
	}})
}

type adminSpectateJoinedPayload struct {
	RoomCode   string          `json:"roomCode"`
	HostName   string          `json:"hostName"`
	GuestName  string          `json:"guestName"`
	GameState  room.State      `json:"gameState"`
	Game       any             `json:"game"`
	MatchStats room.MatchStats `json:"matchStats"`
}

// LeaveSpectate clears connID's admin-spectate membership.
func (o *Observer) LeaveSpectate(connID string) {
	o.mu.Lock()
	delete(o.spectating, connID)
	o.mu.Unlock()
}

// NotifyRoomsChanged pushes a fresh admin_rooms_update to every subscriber.
// Called whenever the registry fires a "rooms changed" signal: room
// created, join, disconnect, game start, game end (spec.md §4.5).
func (o *Observer) NotifyRoomsChanged() {
	msg := o.buildRoomsUpdate()

	o.mu.Lock()
	subscribers := make([]string, 0, len(o.subscribers))
	for connID := range o.subscribers {
		subscribers = append(subscribers, connID)
	}
	o.mu.Unlock()

	for _, connID := range subscribers {
		o.broadcaster.SendTo(connID, msg)
	}
}

// MirrorToAdminSpectators forwards a spectator-audience message to every
// admin connection currently spectating roomCode, implementing
// dispatch.AdminNotifier (spec.md §6.2: admin audience gets "the spectator
// audience events when in admin-spectate mode").
func (o *Observer) MirrorToAdminSpectators(roomCode string, msg dispatch.ServerMessage) {
	o.mu.Lock()
	var targets []string
	for connID, code := range o.spectating {
		if code == roomCode {
			targets = append(targets, connID)
		}
	}
	o.mu.Unlock()

	for _, connID := range targets {
		o.broadcaster.SendTo(connID, msg)
	}
}

func (o *Observer) buildRoomsUpdate() dispatch.ServerMessage {
	stats := o.registry.AllRoomsStats()

	summary := dispatch.AdminRoomsUpdatePayload{
		Rooms: make([]dispatch.AdminRoomSummary, 0, len(stats)),
	}
	for _, s := range stats {
		switch s.State {
		case room.StatePlaying:
			summary.PlayingCount++
		case room.StateWaiting:
			summary.WaitingCount++
		case room.StateFinished:
			summary.FinishedCount++
		}
		summary.Rooms = append(summary.Rooms, dispatch.AdminRoomSummary{
			Code: s.Code, State: s.State, HostName: s.HostName, GuestName: s.GuestName,
			SpectatorCount: s.SpectatorCount, CurrentPlayer: s.CurrentPlayer,
			TimeRemaining: s.TimeRemaining, Scores: s.Scores, CreatedAt: s.CreatedAt,
		})
	}
	summary.TotalRooms = len(stats)

	return dispatch.ServerMessage{Type: "admin_rooms_update", Payload: summary}
}
