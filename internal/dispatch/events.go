// Package dispatch routes player intents to the room registry and game
// engine, then fans authoritative results out to the player, public
// spectator, and admin spectator audiences (spec.md §4.3). The wire format
// is a JSON envelope with a string discriminator rather than the source's
// dynamic string-keyed dispatch table (spec.md §9 Design Notes: "replace
// with a tagged variant... the wire format can still be JSON with a
// discriminator").
package dispatch

import (
	"encoding/json"
	"time"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/game"
	"github.com/minesarena/server/internal/room"
)

// ClientMessage is the envelope every inbound player-channel frame is
// decoded into before being routed to the matching intent handler.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the envelope every outbound frame is encoded as.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// --- Client -> Server payloads (spec.md §6.1) ---

type createRoomPayload struct {
	PlayerName string              `json:"playerName"`
	Settings   *partialSettings    `json:"settings,omitempty"`
}

type partialSettings struct {
	GridSize         *int `json:"gridSize,omitempty"`
	MinesCount       *int `json:"minesCount,omitempty"`
	TurnTimeLimit    *int `json:"turnTimeLimit,omitempty"`
	MinRevealsToPass *int `json:"minRevealsToPass,omitempty"`
}

type joinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type revealTilePayload struct {
	X int `json:"x"`
	Z int `json:"z"`
}

type publicSpectatePayload struct {
	RoomCode string `json:"roomCode"`
}

type sendDanmakuPayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
	Nickname string `json:"nickname"`
	IsPlayer bool   `json:"isPlayer,omitempty"`
}

type updatePlayerNamePayload struct {
	NewName string `json:"newName"`
}

// --- Server -> Client payloads (spec.md §6.2) ---

type roomCreatedPayload struct {
	RoomCode string              `json:"roomCode"`
	Role     game.Role           `json:"role"`
	Settings config.GameSettings `json:"settings"`
}

type roomJoinedPayload struct {
	RoomCode string              `json:"roomCode"`
	Role     game.Role           `json:"role"`
	Settings config.GameSettings `json:"settings"`
}

type joinErrorPayload struct {
	Error string `json:"error"`
}

type redirectToSpectatePayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type playerJoinedPayload struct {
	Opponent string `json:"opponent"`
}

type gameStartPayload struct {
	Grid             []game.ClientTile `json:"grid"`
	GridSize         int               `json:"gridSize"`
	MinesCount       int               `json:"minesCount"`
	CurrentPlayer    game.Role         `json:"currentPlayer"`
	TurnTimeLimit    int               `json:"turnTimeLimit"`
	TimeRemaining    *int              `json:"timeRemaining"`
	IsFirstMove      bool              `json:"isFirstMove"`
	Host             string            `json:"host"`
	Guest            string            `json:"guest"`
	MatchStats       room.MatchStats   `json:"matchStats"`
}

type spectateGameStartPayload struct {
	Grid             []game.SpectatorTile `json:"grid"`
	GridSize         int                  `json:"gridSize"`
	MinesCount       int                  `json:"minesCount"`
	CurrentPlayer    game.Role            `json:"currentPlayer"`
	TurnTimeLimit    int                  `json:"turnTimeLimit"`
	TimeRemaining    *int                 `json:"timeRemaining"`
	IsFirstMove      bool                 `json:"isFirstMove"`
	Host             string               `json:"host"`
	Guest            string               `json:"guest"`
	MatchStats       room.MatchStats      `json:"matchStats"`
}

type tileRevealedPayload struct {
	X               int         `json:"x"`
	Z               int         `json:"z"`
	Player          game.Role   `json:"player"`
	HitMine         bool        `json:"hitMine"`
	RevealedTiles   any         `json:"revealedTiles"`
	CanPass         bool        `json:"canPass"`
	RevealsThisTurn int         `json:"revealsThisTurn"`
	Scores          game.Scores `json:"scores"`
	TimeRemaining   int         `json:"timeRemaining"`
	TimerStarted    bool        `json:"timerStarted,omitempty"`
}

type turnChangedPayload struct {
	CurrentPlayer  game.Role   `json:"currentPlayer"`
	PreviousPlayer game.Role   `json:"previousPlayer"`
	Scores         game.Scores `json:"scores,omitempty"`
	TimeRemaining  int         `json:"timeRemaining"`
	Reason         string      `json:"reason,omitempty"`
}

type timerUpdatePayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type timeoutActionPayload struct {
	Player        game.Role   `json:"player"`
	AutoPassed    bool        `json:"autoPassed,omitempty"`
	AutoRevealed  bool        `json:"autoRevealed,omitempty"`
	NextPlayer    game.Role   `json:"nextPlayer"`
	TimeRemaining int         `json:"timeRemaining"`
	Scores        game.Scores `json:"scores"`
}

type gameOverPayload struct {
	Winner     game.Role     `json:"winner"`
	Loser      game.Role     `json:"loser"`
	Reason     game.Reason   `json:"reason"`
	Scores     game.Scores   `json:"scores"`
	AllMines   []game.Coord  `json:"allMines"`
	MatchStats room.MatchStats `json:"matchStats"`
}

type restartRequestedPayload struct {
	From game.Role `json:"from"`
}

type spectatorCountUpdatePayload struct {
	Count int `json:"count"`
}

type danmakuPayload struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsPlayer  bool      `json:"isPlayer"`
}

type playerNameUpdatedPayload struct {
	Role    game.Role `json:"role"`
	NewName string    `json:"newName"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type spectateJoinedPayload struct {
	RoomCode       string          `json:"roomCode"`
	HostName       string          `json:"hostName"`
	GuestName      string          `json:"guestName"`
	SpectatorCount int             `json:"spectatorCount"`
	GameState      room.State      `json:"gameState"`
	Game           any             `json:"game"`
	MatchStats     room.MatchStats `json:"matchStats"`
	MessageHistory []danmakuPayload `json:"messageHistory"`
}

type spectateErrorPayload struct {
	Error string `json:"error"`
}

type roomClosedPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type AdminRoomsUpdatePayload struct {
	TotalRooms   int                    `json:"totalRooms"`
	PlayingCount int                    `json:"playingCount"`
	WaitingCount int                    `json:"waitingCount"`
	FinishedCount int                   `json:"finishedCount"`
	Rooms        []AdminRoomSummary     `json:"rooms"`
}

type AdminRoomSummary struct {
	Code           string      `json:"code"`
	State          room.State  `json:"state"`
	HostName       string      `json:"hostName"`
	GuestName      string      `json:"guestName"`
	SpectatorCount int         `json:"spectatorCount"`
	CurrentPlayer  game.Role   `json:"currentPlayer,omitempty"`
	TimeRemaining  int         `json:"timeRemaining,omitempty"`
	Scores         game.Scores `json:"scores,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

type adminErrorPayload struct {
	Error string `json:"error"`
}
