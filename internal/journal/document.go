// Package journal persists the per-room append-only history: chat, moves,
// and lifecycle events, serialised through a per-room write queue (spec.md
// §4.4).
package journal

import (
	"time"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/game"
)

// ChatEntry is one danmaku message recorded in the room's history.
type ChatEntry struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Message   string    `json:"message"`
	IsPlayer  bool      `json:"isPlayer"`
	Timestamp time.Time `json:"timestamp"`
}

// MoveEntry is one accepted engine action within a single game.
type MoveEntry struct {
	Player    game.Role `json:"player"`
	Action    string    `json:"action"` // "reveal" | "pass" | "timeout_auto_pass" | "timeout_no_action"
	X         int       `json:"x,omitempty"`
	Z         int       `json:"z,omitempty"`
	HitMine   bool      `json:"hitMine,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GameRecord captures one complete game played in the room.
type GameRecord struct {
	StartedAt      time.Time           `json:"startedAt"`
	EndedAt        time.Time           `json:"endedAt,omitempty"`
	StartingPlayer game.Role           `json:"startingPlayer"`
	Settings       config.GameSettings `json:"settings"`
	Moves          []MoveEntry         `json:"moves"`
	Result         *GameResult         `json:"result,omitempty"`
}

// GameResult is the terminal outcome of a GameRecord.
type GameResult struct {
	Winner game.Role    `json:"winner"`
	Loser  game.Role    `json:"loser"`
	Reason game.Reason  `json:"reason"`
	Scores game.Scores  `json:"scores"`
}

// JournalEvent is a room lifecycle event not tied to any single move. The
// only such event the server records is room_closed, appended by
// Queue.Archive.
type JournalEvent struct {
	Type      string    `json:"type"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomDocument is the on-disk JSON shape at {dataDir}/rooms/{CODE}.json
// (and, once archived, {dataDir}/archive/{CODE}_{YYYYMMDD}_{HHMMSS}.json).
type RoomDocument struct {
	RoomCode  string    `json:"roomCode"`
	CreatedAt time.Time `json:"createdAt"`
	ClosedAt  time.Time `json:"closedAt,omitempty"`

	HostName  string `json:"hostName"`
	GuestName string `json:"guestName,omitempty"`

	Settings config.GameSettings `json:"settings"`

	Messages []ChatEntry    `json:"messages"`
	Games    []GameRecord   `json:"games"`
	Events   []JournalEvent `json:"events"`
}

func newDocument(code string, settings config.GameSettings) *RoomDocument {
	return &RoomDocument{
		RoomCode:  code,
		CreatedAt: time.Now(),
		Settings:  settings,
		Messages:  []ChatEntry{},
		Games:     []GameRecord{},
		Events:    []JournalEvent{},
	}
}

// AppendChat records a danmaku entry.
func (d *RoomDocument) AppendChat(entry ChatEntry) {
	d.Messages = append(d.Messages, entry)
}

// AppendEvent records a lifecycle event.
func (d *RoomDocument) AppendEvent(eventType, detail string) {
	d.Events = append(d.Events, JournalEvent{Type: eventType, Detail: detail, Timestamp: time.Now()})
}

// StartGame appends a new, in-progress GameRecord and returns its index.
func (d *RoomDocument) StartGame(startingPlayer game.Role, settings config.GameSettings) int {
	d.Games = append(d.Games, GameRecord{
		StartedAt:      time.Now(),
		StartingPlayer: startingPlayer,
		Settings:       settings,
		Moves:          []MoveEntry{},
	})
	return len(d.Games) - 1
}

// AppendMove records a move against the game at gameIndex. A negative or
// out-of-range index is a no-op: the caller raced a journal write against a
// room that was archived mid-game, and there is no game left to record
// against.
func (d *RoomDocument) AppendMove(gameIndex int, move MoveEntry) {
	if gameIndex < 0 || gameIndex >= len(d.Games) {
		return
	}
	d.Games[gameIndex].Moves = append(d.Games[gameIndex].Moves, move)
}

// FinishGame stamps the endedAt/result on the game at gameIndex.
func (d *RoomDocument) FinishGame(gameIndex int, result GameResult) {
	if gameIndex < 0 || gameIndex >= len(d.Games) {
		return
	}
	d.Games[gameIndex].EndedAt = time.Now()
	d.Games[gameIndex].Result = &result
}
