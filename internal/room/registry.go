package room

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/game"
)

// codeAlphabet excludes visually ambiguous characters: I/O (look like 1/0)
// and 0/1 themselves, per spec.md §4.1.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomNotJoinable = errors.New("room is not joinable")
	ErrGuestSlotFull = errors.New("guest slot is full")
)

// Registry is the single mutable table of all active rooms, guarded by one
// lock held across each operation (spec.md §5: "the simplest correct
// design is a per-registry lock held across each of
// createRoom/joinRoom/leaveRoom/get* invocations").
type Registry struct {
	mu   sync.RWMutex
	rooms map[string]*Room

	// connLoc maps a connection to where it currently sits: its room code
	// and its role there (host, guest, or a spectator marker).
	connLoc map[string]connLocation

	codeLength int
}

type connLocation struct {
	code string
	role game.Role
	spectator bool
}

// NewRegistry creates an empty room registry.
func NewRegistry(codeLength int) *Registry {
	if codeLength <= 0 {
		codeLength = 6
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		connLoc:    make(map[string]connLocation),
		codeLength: codeLength,
	}
}

// CreateRoom generates a unique code, installs connID as host, and returns
// the new waiting room.
func (reg *Registry) CreateRoom(connID, name string, settings config.GameSettings) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.generateUniqueCodeLocked()
	r := newRoom(code, settings)
	r.Host = &PlayerSlot{ConnID: connID, Name: name}

	reg.rooms[code] = r
	reg.connLoc[connID] = connLocation{code: code, role: game.Host}

	return r
}

// JoinRoom seats connID as guest, succeeding only if the room exists, is
// waiting, and has no guest yet.
func (reg *Registry) JoinRoom(code, connID, name string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[normalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.GameState != StateWaiting {
		return nil, ErrRoomNotJoinable
	}
	if r.Guest != nil {
		return nil, ErrGuestSlotFull
	}

	r.Guest = &PlayerSlot{ConnID: connID, Name: name}
	reg.connLoc[connID] = connLocation{code: r.Code, role: game.Guest}

	return r, nil
}

// LeaveRoom removes connID from whatever seat it holds. If it was the host,
// the room is deleted entirely. If it was the guest, the guest slot clears
// and the room reverts to waiting (or finishes, if a game was mid-play).
func (reg *Registry) LeaveRoom(connID string) (room *Room, wasHost bool, ok bool) {
	reg.mu.Lock()
	loc, exists := reg.connLoc[connID]
	if !exists || loc.spectator {
		reg.mu.Unlock()
		return nil, false, false
	}
	r, exists := reg.rooms[loc.code]
	if !exists {
		delete(reg.connLoc, connID)
		reg.mu.Unlock()
		return nil, false, false
	}

	wasHost = loc.role == game.Host
	if wasHost {
		delete(reg.rooms, loc.code)
	}
	delete(reg.connLoc, connID)
	reg.mu.Unlock()

	r.mu.Lock()
	if wasHost {
		r.Host = nil
	} else {
		r.Guest = nil
		// A forfeit (dispatch.HandleDisconnect) may have already moved a
		// mid-game room to finished before calling LeaveRoom, while its
		// engine is still playing; that terminal state must not be reverted
		// to waiting here. A room whose game ended normally reverts to
		// waiting so a new guest can join.
		switch r.GameState {
		case StatePlaying:
			r.GameState = StateFinished
		case StateFinished:
			if r.Game == nil || r.Game.Status() == game.StatusFinished {
				r.GameState = StateWaiting
			}
		}
	}
	r.mu.Unlock()

	return r, wasHost, true
}

// GetByCode looks up a room by its (case-insensitive) code.
func (reg *Registry) GetByCode(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[normalizeCode(code)]
	return r, ok
}

// GetByConnID returns the room a connection currently occupies, in any
// role, and whether it was found.
func (reg *Registry) GetByConnID(connID string) (*Room, bool) {
	reg.mu.RLock()
	loc, ok := reg.connLoc[connID]
	if !ok {
		reg.mu.RUnlock()
		return nil, false
	}
	r, ok := reg.rooms[loc.code]
	reg.mu.RUnlock()
	return r, ok
}

// GetPlayerRole returns the role connID holds in its room, or "" if it is
// not a seated player there.
func (reg *Registry) GetPlayerRole(connID string) game.Role {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	loc, ok := reg.connLoc[connID]
	if !ok || loc.spectator {
		return ""
	}
	return loc.role
}

// GetOpponent returns the connID of the other seated player in connID's
// room, if any.
func (reg *Registry) GetOpponent(connID string) (string, bool) {
	r, ok := reg.GetByConnID(connID)
	if !ok {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	role := r.RoleOf(connID)
	switch role {
	case game.Host:
		if r.Guest != nil {
			return r.Guest.ConnID, true
		}
	case game.Guest:
		if r.Host != nil {
			return r.Host.ConnID, true
		}
	}
	return "", false
}

// AddSpectator marks connID as a public spectator of the room with code.
func (reg *Registry) AddSpectator(code, connID string) (*Room, error) {
	reg.mu.Lock()
	r, ok := reg.rooms[normalizeCode(code)]
	if !ok {
		reg.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	reg.connLoc[connID] = connLocation{code: r.Code, spectator: true}
	reg.mu.Unlock()

	r.mu.Lock()
	r.Spectators[connID] = true
	r.mu.Unlock()

	return r, nil
}

// RemoveSpectator removes connID from the room's spectator set.
func (reg *Registry) RemoveSpectator(code, connID string) {
	reg.mu.Lock()
	if loc, ok := reg.connLoc[connID]; ok && loc.spectator && loc.code == normalizeCode(code) {
		delete(reg.connLoc, connID)
	}
	reg.mu.Unlock()

	if r, ok := reg.GetByCode(code); ok {
		r.mu.Lock()
		delete(r.Spectators, connID)
		r.mu.Unlock()
	}
}

// RemoveSpectatorByConnID removes a connection from whichever room it is
// spectating, returning that room's code.
func (reg *Registry) RemoveSpectatorByConnID(connID string) (string, bool) {
	reg.mu.Lock()
	loc, ok := reg.connLoc[connID]
	if !ok || !loc.spectator {
		reg.mu.Unlock()
		return "", false
	}
	delete(reg.connLoc, connID)
	r, roomOK := reg.rooms[loc.code]
	reg.mu.Unlock()

	if roomOK {
		r.mu.Lock()
		delete(r.Spectators, connID)
		r.mu.Unlock()
	}

	return loc.code, true
}

// GetSpectatorCount returns the number of public spectators in a room.
func (reg *Registry) GetSpectatorCount(code string) int {
	r, ok := reg.GetByCode(code)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Spectators)
}

// GetSpectators returns a snapshot of a room's public spectator connIDs.
func (reg *Registry) GetSpectators(code string) []string {
	r, ok := reg.GetByCode(code)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.SpectatorConnIDs()
}

// DeleteRoom removes a room and every connection location pointing at it,
// spectators included. The dispatcher calls it after the host leaves.
func (reg *Registry) DeleteRoom(code string) {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, code)
	for connID, loc := range reg.connLoc {
		if loc.code == code {
			delete(reg.connLoc, connID)
		}
	}
}

// RoomStatsEntry is one row of an admin rooms listing.
type RoomStatsEntry struct {
	Code            string
	State           State
	HostName        string
	GuestName       string
	Settings        config.GameSettings
	CreatedAt       time.Time
	GameStartedAt   time.Time
	PlayDuration    time.Duration
	SpectatorCount  int
	CurrentPlayer   game.Role
	TimeRemaining   int
	Scores          game.Scores
	MatchStats      MatchStats
}

// AllRoomsStats projects every room into an admin stats row, spec.md §4.1
// getAllRoomsStats().
func (reg *Registry) AllRoomsStats() []RoomStatsEntry {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	out := make([]RoomStatsEntry, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		entry := RoomStatsEntry{
			Code:           r.Code,
			State:          r.GameState,
			Settings:       r.Settings,
			CreatedAt:      r.CreatedAt,
			GameStartedAt:  r.GameStartedAt,
			SpectatorCount: len(r.Spectators),
			MatchStats:     r.MatchStats,
		}
		if r.Host != nil {
			entry.HostName = r.Host.Name
		}
		if r.Guest != nil {
			entry.GuestName = r.Guest.Name
		}
		if !r.GameStartedAt.IsZero() {
			entry.PlayDuration = time.Since(r.GameStartedAt)
		}
		if r.Game != nil {
			entry.CurrentPlayer = r.Game.CurrentPlayer()
			entry.TimeRemaining = r.Game.TimeRemaining()
			entry.Scores = r.Game.Scores()
		}
		r.mu.Unlock()
		out = append(out, entry)
	}
	return out
}

// CleanupIdleRooms deletes every room older than idleTTL whose state is not
// playing, returning the codes removed.
func (reg *Registry) CleanupIdleRooms(idleTTL time.Duration) []string {
	now := time.Now()

	reg.mu.Lock()
	var stale []string
	for code, r := range reg.rooms {
		r.mu.Lock()
		idle := r.GameState != StatePlaying && now.Sub(r.CreatedAt) > idleTTL
		r.mu.Unlock()
		if idle {
			stale = append(stale, code)
		}
	}
	for _, code := range stale {
		delete(reg.rooms, code)
		for connID, loc := range reg.connLoc {
			if loc.code == code {
				delete(reg.connLoc, connID)
			}
		}
	}
	reg.mu.Unlock()

	return stale
}

func normalizeCode(code string) string {
	out := make([]rune, 0, len(code))
	for _, r := range code {
		if r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

// generateUniqueCodeLocked generates a room code from codeAlphabet, retrying
// on collision. Caller must hold reg.mu.
func (reg *Registry) generateUniqueCodeLocked() string {
	for {
		code := randomCode(reg.codeLength)
		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

func randomCode(length int) string {
	out := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure is not expected in practice; fall back to
			// a fixed index rather than panicking mid-request.
			out[i] = codeAlphabet[0]
			continue
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out)
}
