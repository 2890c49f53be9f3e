package dispatch

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/game"
	"github.com/minesarena/server/internal/journal"
	"github.com/minesarena/server/internal/room"
)

// Broadcaster delivers an encoded server message to one or many
// connections. The player namespace (seated players and public spectators)
// and the admin namespace each have their own Broadcaster value rather than
// a module-level singleton: the Dispatcher is given the player one, and the
// admin surface behind AdminNotifier holds the admin one (spec.md §9 Design
// Notes: "prefer explicit
// parameter passing of the broadcast function/channel group... a
// Broadcaster value threaded through constructors").
type Broadcaster interface {
	SendTo(connID string, msg ServerMessage)
}

// AdminNotifier lets the dispatcher push registry-change signals and
// mirrored spectator-audience events to the admin surface without
// depending on its package directly.
type AdminNotifier interface {
	NotifyRoomsChanged()
	MirrorToAdminSpectators(roomCode string, msg ServerMessage)
}

// Dispatcher routes decoded client intents to the room registry and game
// engine, then fans authoritative results out to players, public
// spectators, and admin observers, journaling every chat message and move
// along the way (spec.md §4.3).
type Dispatcher struct {
	registry *room.Registry
	journal  *journal.Queue
	players  Broadcaster
	admin    AdminNotifier
	chat     *chatLimiter
	history  *chatHistory

	defaultSettings config.GameSettings
}

// New constructs a Dispatcher. players delivers to seated host/guest
// connections and public spectators alike; admin is notified of every
// registry change and of every spectator-audience broadcast so it can
// mirror them to admin-spectating connections.
func New(registry *room.Registry, jq *journal.Queue, players Broadcaster, admin AdminNotifier, defaultSettings config.GameSettings) *Dispatcher {
	return &Dispatcher{
		registry:        registry,
		journal:         jq,
		players:         players,
		admin:           admin,
		chat:            newChatLimiter(),
		history:         newChatHistory(),
		defaultSettings: defaultSettings,
	}
}

// Dispatch decodes raw and routes it to the matching intent handler.
func (d *Dispatcher) Dispatch(connID string, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "malformed message"}})
		return
	}

	switch msg.Type {
	case "create_room":
		d.handleCreateRoom(connID, msg.Payload)
	case "join_room":
		d.handleJoinRoom(connID, msg.Payload)
	case "reveal_tile":
		d.handleRevealTile(connID, msg.Payload)
	case "pass_turn":
		d.handlePassTurn(connID)
	case "request_restart":
		d.handleRequestRestart(connID)
	case "accept_restart":
		d.handleAcceptRestart(connID)
	case "public_spectate":
		d.handlePublicSpectate(connID, msg.Payload)
	case "leave_spectate":
		d.handleLeaveSpectate(connID)
	case "send_danmaku":
		d.handleSendDanmaku(connID, msg.Payload)
	case "update_player_name":
		d.handleUpdatePlayerName(connID, msg.Payload)
	default:
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "unknown message type"}})
	}
}

func (d *Dispatcher) handleCreateRoom(connID string, raw json.RawMessage) {
	var p createRoomPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "join_error", Payload: joinErrorPayload{Error: "malformed create_room payload"}})
		return
	}

	name, ok := normalizeName(p.PlayerName)
	if !ok {
		d.players.SendTo(connID, ServerMessage{Type: "join_error", Payload: joinErrorPayload{Error: "name required"}})
		return
	}

	settings := d.resolveSettings(p.Settings)
	r := d.registry.CreateRoom(connID, name, settings)
	d.journal.CreateRoom(r.Code, name, settings)

	d.players.SendTo(connID, ServerMessage{Type: "room_created", Payload: roomCreatedPayload{
		RoomCode: r.Code,
		Role:     game.Host,
		Settings: settings,
	}})

	d.admin.NotifyRoomsChanged()
}

func (d *Dispatcher) resolveSettings(override *partialSettings) config.GameSettings {
	settings := d.defaultSettings
	if override == nil {
		return settings
	}
	if override.GridSize != nil {
		settings.GridSize = *override.GridSize
	}
	if override.MinesCount != nil {
		settings.MinesCount = *override.MinesCount
	}
	if override.TurnTimeLimit != nil {
		settings.TurnTimeLimit = *override.TurnTimeLimit
	}
	if override.MinRevealsToPass != nil {
		settings.MinRevealsToPass = *override.MinRevealsToPass
	}
	return settings
}

func (d *Dispatcher) handleJoinRoom(connID string, raw json.RawMessage) {
	var p joinRoomPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "join_error", Payload: joinErrorPayload{Error: "malformed join_room payload"}})
		return
	}

	name, ok := normalizeName(p.PlayerName)
	if !ok {
		d.players.SendTo(connID, ServerMessage{Type: "join_error", Payload: joinErrorPayload{Error: "name required"}})
		return
	}

	r, found := d.registry.GetByCode(p.RoomCode)
	if !found {
		d.players.SendTo(connID, ServerMessage{Type: "join_error", Payload: joinErrorPayload{Error: "room not found"}})
		return
	}

	r.Lock()
	state := r.GameState
	r.Unlock()

	if state != room.StateWaiting {
		d.players.SendTo(connID, ServerMessage{Type: "redirect_to_spectate", Payload: redirectToSpectatePayload{
			RoomCode: r.Code,
			Message:  "this room's game is already in progress",
		}})
		return
	}

	joined, err := d.registry.JoinRoom(r.Code, connID, name)
	if err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "join_error", Payload: joinErrorPayload{Error: err.Error()}})
		return
	}

	d.players.SendTo(connID, ServerMessage{Type: "room_joined", Payload: roomJoinedPayload{
		RoomCode: joined.Code,
		Role:     game.Guest,
		Settings: joined.Settings,
	}})

	joined.Lock()
	hostConnID := ""
	if joined.Host != nil {
		hostConnID = joined.Host.ConnID
	}
	joined.Unlock()

	if hostConnID != "" {
		d.players.SendTo(hostConnID, ServerMessage{Type: "player_joined", Payload: playerJoinedPayload{Opponent: name}})
	}

	d.admin.NotifyRoomsChanged()
	d.startGame(joined)
}

// startGame constructs a fresh engine for r and broadcasts game_start to
// both audiences. Caller must not hold r's lock.
func (d *Dispatcher) startGame(r *room.Room) {
	r.Lock()
	startingPlayer := r.NextStartingPlayer
	settings := r.Settings

	engine := game.NewEngine(settings, startingPlayer,
		func(remaining int) { d.onTick(r, remaining) },
		func(result game.TimeoutResult) { d.onTimeout(r, result) },
	)
	r.Game = engine
	r.GameState = room.StatePlaying
	r.GameStartedAt = time.Now()

	var hostName, guestName string
	if r.Host != nil {
		hostName = r.Host.Name
	}
	if r.Guest != nil {
		guestName = r.Guest.Name
	}
	players := r.PlayerConnIDs()
	spectators := r.SpectatorConnIDs()
	r.Unlock()

	d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
		doc.StartGame(startingPlayer, settings)
	})

	clientGrid := engine.GetClientGrid()
	playerPayload := gameStartPayload{
		Grid:          clientGrid,
		GridSize:      settings.GridSize,
		MinesCount:    settings.MinesCount,
		CurrentPlayer: startingPlayer,
		TurnTimeLimit: settings.TurnTimeLimit,
		TimeRemaining: nil,
		IsFirstMove:   true,
		Host:          hostName,
		Guest:         guestName,
		MatchStats:    r.MatchStats,
	}
	for _, connID := range players {
		d.players.SendTo(connID, ServerMessage{Type: "game_start", Payload: playerPayload})
	}

	spectatorGrid := engine.GetFullGridForSpectator()
	spectatorPayload := spectateGameStartPayload{
		Grid:          spectatorGrid,
		GridSize:      settings.GridSize,
		MinesCount:    settings.MinesCount,
		CurrentPlayer: startingPlayer,
		TurnTimeLimit: settings.TurnTimeLimit,
		TimeRemaining: nil,
		IsFirstMove:   true,
		Host:          hostName,
		Guest:         guestName,
		MatchStats:    r.MatchStats,
	}
	msg := ServerMessage{Type: "game_start", Payload: spectatorPayload}
	for _, connID := range spectators {
		d.players.SendTo(connID, msg)
	}
	d.admin.MirrorToAdminSpectators(r.Code, msg)
	d.admin.NotifyRoomsChanged()
}

func (d *Dispatcher) handleRevealTile(connID string, raw json.RawMessage) {
	var p revealTilePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "malformed reveal_tile payload"}})
		return
	}

	r, found := d.registry.GetByConnID(connID)
	if !found {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "not in a room"}})
		return
	}

	role := d.registry.GetPlayerRole(connID)
	r.Lock()
	engine := r.Game
	r.Unlock()
	if engine == nil {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "no game in progress"}})
		return
	}

	result, err := engine.RevealTile(p.X, p.Z, role)
	if err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: err.Error()}})
		return
	}

	gameIndex := d.currentGameIndex(r)
	if len(result.RevealedTiles) > 0 {
		d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
			doc.AppendMove(gameIndex, journal.MoveEntry{
				Player: role, Action: "reveal", X: p.X, Z: p.Z, HitMine: result.HitMine, Timestamp: time.Now(),
			})
		})
	}

	revealedClient := make([]game.ClientTile, len(result.RevealedTiles))
	revealedSpectator := make([]game.SpectatorTile, len(result.RevealedTiles))
	for i, tile := range result.RevealedTiles {
		revealedClient[i] = tile.ToClientTile()
		revealedSpectator[i] = tile.ToSpectatorTile()
	}

	d.broadcastToRoom(r, func() ServerMessage {
		return ServerMessage{Type: "tile_revealed", Payload: tileRevealedPayload{
			X: p.X, Z: p.Z, Player: role, HitMine: result.HitMine,
			RevealedTiles: revealedClient, CanPass: result.CanPass,
			RevealsThisTurn: result.RevealsThisTurn, Scores: result.Scores,
			TimeRemaining: result.TimeRemaining, TimerStarted: result.TimerStarted,
		}}
	}, func() ServerMessage {
		return ServerMessage{Type: "tile_revealed", Payload: tileRevealedPayload{
			X: p.X, Z: p.Z, Player: role, HitMine: result.HitMine,
			RevealedTiles: revealedSpectator, CanPass: result.CanPass,
			RevealsThisTurn: result.RevealsThisTurn, Scores: result.Scores,
			TimeRemaining: result.TimeRemaining, TimerStarted: result.TimerStarted,
		}}
	})

	if result.GameOver {
		d.finishGame(r, gameIndex, result.Winner, result.Loser, result.Reason, result.Scores, result.AllMines)
	}
}

func (d *Dispatcher) handlePassTurn(connID string) {
	r, found := d.registry.GetByConnID(connID)
	if !found {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "not in a room"}})
		return
	}
	role := d.registry.GetPlayerRole(connID)
	r.Lock()
	engine := r.Game
	r.Unlock()
	if engine == nil {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: "no game in progress"}})
		return
	}

	result, err := engine.PassTurn(role)
	if err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "error", Payload: errorPayload{Error: err.Error()}})
		return
	}

	gameIndex := d.currentGameIndex(r)
	d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
		doc.AppendMove(gameIndex, journal.MoveEntry{Player: role, Action: "pass", Timestamp: time.Now()})
	})

	msg := ServerMessage{Type: "turn_changed", Payload: turnChangedPayload{
		CurrentPlayer: result.NextPlayer, PreviousPlayer: role,
		Scores: result.Scores, TimeRemaining: result.TimeRemaining,
	}}
	d.broadcastToRoom(r, func() ServerMessage { return msg }, func() ServerMessage { return msg })
}

func (d *Dispatcher) handleRequestRestart(connID string) {
	r, found := d.registry.GetByConnID(connID)
	if !found {
		return
	}
	role := d.registry.GetPlayerRole(connID)
	opp, ok := d.registry.GetOpponent(connID)
	if !ok {
		return
	}
	_ = r
	d.players.SendTo(opp, ServerMessage{Type: "restart_requested", Payload: restartRequestedPayload{From: role}})
}

func (d *Dispatcher) handleAcceptRestart(connID string) {
	r, found := d.registry.GetByConnID(connID)
	if !found {
		return
	}
	if d.registry.GetPlayerRole(connID) == "" {
		return
	}

	r.Lock()
	state := r.GameState
	r.Unlock()
	if state != room.StateFinished {
		return
	}

	d.startGame(r)
}

func (d *Dispatcher) handlePublicSpectate(connID string, raw json.RawMessage) {
	var p publicSpectatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "spectate_error", Payload: spectateErrorPayload{Error: "malformed public_spectate payload"}})
		return
	}

	r, found := d.registry.GetByCode(p.RoomCode)
	if !found {
		d.players.SendTo(connID, ServerMessage{Type: "spectate_error", Payload: spectateErrorPayload{Error: "room not found"}})
		return
	}

	r, err := d.registry.AddSpectator(r.Code, connID)
	if err != nil {
		d.players.SendTo(connID, ServerMessage{Type: "spectate_error", Payload: spectateErrorPayload{Error: err.Error()}})
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
	spectatorCount := len(r.Spectators)
	var snapshot any
	if r.Game != nil {
		snapshot = r.Game.GetFullGridForSpectator()
	}
	r.Unlock()

	d.players.SendTo(connID, ServerMessage{Type: "spectate_joined", Payload: spectateJoinedPayload{
		RoomCode: r.Code, HostName: hostName, GuestName: guestName,
		SpectatorCount: spectatorCount, GameState: gameState, Game: snapshot,
		MatchStats: matchStats, MessageHistory: d.history.Snapshot(r.Code),
	}})

	d.broadcastSpectatorCount(r)
}

func (d *Dispatcher) handleLeaveSpectate(connID string) {
	code, ok := d.registry.RemoveSpectatorByConnID(connID)
	if !ok {
		return
	}
	if r, found := d.registry.GetByCode(code); found {
		d.broadcastSpectatorCount(r)
	}
}

func (d *Dispatcher) handleSendDanmaku(connID string, raw json.RawMessage) {
	var p sendDanmakuPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}

	if !d.chat.Allow(connID) {
		return
	}

	message, ok := normalizeChat(p.Message)
	if !ok {
		return
	}
	nickname, ok := normalizeName(p.Nickname)
	if !ok {
		return
	}

	r, found := d.registry.GetByCode(p.RoomCode)
	if !found {
		return
	}

	entry := danmakuPayload{
		ID: uuid.NewString(), Nickname: nickname, Message: message,
		Timestamp: time.Now(), IsPlayer: p.IsPlayer,
	}
	msg := ServerMessage{Type: "danmaku", Payload: entry}

	d.history.Append(r.Code, entry)

	d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
		doc.AppendChat(journal.ChatEntry{
			ID: entry.ID, Nickname: nickname, Message: message,
			IsPlayer: p.IsPlayer, Timestamp: entry.Timestamp,
		})
	})

	d.broadcastToRoom(r, func() ServerMessage { return msg }, func() ServerMessage { return msg })
}

func (d *Dispatcher) handleUpdatePlayerName(connID string, raw json.RawMessage) {
	var p updatePlayerNamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	newName, ok := normalizeName(p.NewName)
	if !ok {
		return
	}

	r, found := d.registry.GetByConnID(connID)
	if !found {
		return
	}
	role := d.registry.GetPlayerRole(connID)
	if role == "" {
		return
	}

	r.Lock()
	slot := r.SlotOf(role)
	if slot != nil {
		slot.Name = newName
	}
	r.Unlock()

	msg := ServerMessage{Type: "player_name_updated", Payload: playerNameUpdatedPayload{Role: role, NewName: newName}}
	d.broadcastToRoom(r, func() ServerMessage { return msg }, func() ServerMessage { return msg })
}

// HandleDisconnect processes a closed connection: a seated player mid-game
// forfeits to their opponent; a seated player outside a game is simply
// removed; a spectator's membership is dropped (spec.md §5 Cancellation).
func (d *Dispatcher) HandleDisconnect(connID string) {
	d.chat.Forget(connID)

	if code, ok := d.registry.RemoveSpectatorByConnID(connID); ok {
		if r, found := d.registry.GetByCode(code); found {
			d.broadcastSpectatorCount(r)
		}
		return
	}

	r, found := d.registry.GetByConnID(connID)
	if !found {
		return
	}

	r.Lock()
	wasPlaying := r.GameState == room.StatePlaying
	engine := r.Game
	role := r.RoleOf(connID)
	spectators := r.SpectatorConnIDs()
	r.Unlock()

	if wasPlaying && engine != nil {
		engine.StopTimer()
		winner := role.Opponent()
		scores := engine.Scores()
		allMines := engine.GetAllMines()

		gameIndex := d.currentGameIndex(r)
		d.finishGame(r, gameIndex, winner, role, game.ReasonOpponentDisconnected, scores, allMines)

		opp, ok := d.registry.GetOpponent(connID)
		if ok {
			d.players.SendTo(opp, ServerMessage{Type: "game_over", Payload: gameOverPayload{
				Winner: winner, Loser: role, Reason: game.ReasonOpponentDisconnected,
				Scores: scores, AllMines: allMines, MatchStats: d.matchStatsSnapshot(r),
			}})
		}
		forfeitMsg := ServerMessage{Type: "game_over", Payload: gameOverPayload{
			Winner: winner, Loser: role, Reason: game.ReasonOpponentDisconnected,
			Scores: scores, AllMines: allMines, MatchStats: d.matchStatsSnapshot(r),
		}}
		for _, spec := range spectators {
			d.players.SendTo(spec, forfeitMsg)
		}
		d.admin.MirrorToAdminSpectators(r.Code, forfeitMsg)
	}

	_, wasHost, ok := d.registry.LeaveRoom(connID)
	if ok && wasHost {
		closedMsg := ServerMessage{Type: "room_closed", Payload: roomClosedPayload{
			Reason: "host_left", Message: "the host left the room",
		}}
		for _, spec := range spectators {
			d.players.SendTo(spec, closedMsg)
		}
		d.admin.MirrorToAdminSpectators(r.Code, closedMsg)
		d.journal.Archive(r.Code, "host left")
		d.registry.DeleteRoom(r.Code)
		d.history.Forget(r.Code)
	}

	d.admin.NotifyRoomsChanged()
}

// ForgetRoom discards any in-memory chat history kept for code, called once
// a room is torn down (idle sweep) outside the normal disconnect path.
func (d *Dispatcher) ForgetRoom(code string) {
	d.history.Forget(code)
}

func (d *Dispatcher) currentGameIndex(r *room.Room) int {
	r.Lock()
	defer r.Unlock()
	return r.MatchStats.GamesPlayed
}

func (d *Dispatcher) matchStatsSnapshot(r *room.Room) room.MatchStats {
	r.Lock()
	defer r.Unlock()
	return r.MatchStats
}

// finishGame stamps matchStats, advances nextStartingPlayer to the loser,
// journals the result, broadcasts game_over, and notifies admin observers
// (spec.md §4.3). For a disconnect forfeit it only marks the room finished
// and journals the result; HandleDisconnect sends the game_over messages
// and the admin notification itself.
func (d *Dispatcher) finishGame(r *room.Room, gameIndex int, winner, loser game.Role, reason game.Reason, scores game.Scores, allMines []game.Coord) {
	r.Lock()
	// Disconnect forfeits neither count toward matchStats nor advance
	// nextStartingPlayer (spec.md §5 Cancellation/disconnect; §9 Open
	// Questions: "this spec chooses to leave it unchanged").
	if reason != game.ReasonOpponentDisconnected {
		r.MatchStats.GamesPlayed++
		if winner == game.Host {
			r.MatchStats.HostWins++
		} else {
			r.MatchStats.GuestWins++
		}
		r.NextStartingPlayer = loser
	}
	r.GameState = room.StateFinished
	matchStats := r.MatchStats
	r.Unlock()

	d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
		doc.FinishGame(gameIndex, journal.GameResult{Winner: winner, Loser: loser, Reason: reason, Scores: scores})
	})

	if reason == game.ReasonOpponentDisconnected {
		return
	}

	msg := ServerMessage{Type: "game_over", Payload: gameOverPayload{
		Winner: winner, Loser: loser, Reason: reason, Scores: scores,
		AllMines: allMines, MatchStats: matchStats,
	}}
	d.broadcastToRoom(r, func() ServerMessage { return msg }, func() ServerMessage { return msg })
	d.admin.NotifyRoomsChanged()
}

func (d *Dispatcher) onTick(r *room.Room, remaining int) {
	msg := ServerMessage{Type: "timer_update", Payload: timerUpdatePayload{TimeRemaining: remaining}}
	d.broadcastToRoom(r, func() ServerMessage { return msg }, func() ServerMessage { return msg })
}

func (d *Dispatcher) onTimeout(r *room.Room, result game.TimeoutResult) {
	gameIndex := d.currentGameIndex(r)

	if result.GameOver {
		d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
			doc.AppendMove(gameIndex, journal.MoveEntry{Action: "timeout_no_action", Timestamp: time.Now()})
		})
		d.finishGame(r, gameIndex, result.Winner, result.Loser, result.Reason, result.Scores, result.AllMines)
		return
	}

	d.journal.Enqueue(r.Code, func(doc *journal.RoomDocument) {
		doc.AppendMove(gameIndex, journal.MoveEntry{Action: "timeout_auto_pass", Timestamp: time.Now()})
	})

	actionMsg := ServerMessage{Type: "timeout_action", Payload: timeoutActionPayload{
		Player: result.Player, AutoPassed: result.AutoPassed, NextPlayer: result.NextPlayer,
		TimeRemaining: result.TimeRemaining, Scores: result.Scores,
	}}
	d.broadcastToRoom(r, func() ServerMessage { return actionMsg }, func() ServerMessage { return actionMsg })

	turnMsg := ServerMessage{Type: "turn_changed", Payload: turnChangedPayload{
		CurrentPlayer: result.NextPlayer, Scores: result.Scores,
		TimeRemaining: result.TimeRemaining, Reason: "timeout_auto_pass",
	}}
	d.broadcastToRoom(r, func() ServerMessage { return turnMsg }, func() ServerMessage { return turnMsg })
}

func (d *Dispatcher) broadcastSpectatorCount(r *room.Room) {
	count := d.registry.GetSpectatorCount(r.Code)
	msg := ServerMessage{Type: "spectator_count_update", Payload: spectatorCountUpdatePayload{Count: count}}
	d.broadcastToRoom(r, func() ServerMessage { return msg }, func() ServerMessage { return msg })
}

// broadcastToRoom delivers playerMsg() to seated players and spectatorMsg()
// to public and admin spectators, keeping the two audiences prefix-
// consistent (spec.md §5 Ordering guarantees): both are constructed and
// sent together, from the same room-state snapshot.
func (d *Dispatcher) broadcastToRoom(r *room.Room, playerMsg, spectatorMsg func() ServerMessage) {
	r.Lock()
	players := r.PlayerConnIDs()
	spectators := r.SpectatorConnIDs()
	code := r.Code
	r.Unlock()

	pm := playerMsg()
	for _, connID := range players {
		d.players.SendTo(connID, pm)
	}

	sm := spectatorMsg()
	for _, connID := range spectators {
		d.players.SendTo(connID, sm)
	}
	d.admin.MirrorToAdminSpectators(code, sm)
}

