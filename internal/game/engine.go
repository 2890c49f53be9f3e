// Package game implements the per-room Minesweeper engine: grid generation
// with first-click safety, flood reveal, turn transfer, the per-turn
// countdown, and win/loss resolution. The engine never talks to the
// transport or dispatch layers directly — it only ever calls the two
// callbacks it was constructed with (spec.md §9 Design Notes: "Event
// callbacks into engine... model these as two function fields... The
// engine never references the dispatcher directly").
package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/minesarena/server/config"
)

// Role identifies one of the two players in a room.
type Role string

const (
	Host  Role = "host"
	Guest Role = "guest"
)

// Opponent returns the other role.
func (r Role) Opponent() Role {
	if r == Host {
		return Guest
	}
	return Host
}

// Status is the engine's lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Reason is the taxonomy of terminal outcomes, spec.md §6.2.
type Reason string

const (
	ReasonHitMine             Reason = "hit_mine"
	ReasonAllSafeRevealed     Reason = "all_safe_revealed"
	ReasonOpponentDisconnected Reason = "opponent_disconnected"
	ReasonTimeoutNoAction     Reason = "timeout_no_action"
	// ReasonTimeoutHitMine is unreachable in this implementation: it
	// belonged to an older handleTimeout variant (an auto-reveal-on-timeout
	// design) that spec.md §9 explicitly does not adopt. It is kept in the
	// taxonomy only for wire-format compatibility with older clients.
	ReasonTimeoutHitMine Reason = "timeout_hit_mine"
)

var (
	ErrNotPlaying      = errors.New("game is not in playing status")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrOutOfBounds     = errors.New("coordinates out of bounds")
	ErrAlreadyRevealed = errors.New("tile already revealed")
	ErrCannotPass      = errors.New("not enough reveals this turn to pass")
)

// Scores maps each role to its current point total.
type Scores map[Role]int

func newScores() Scores {
	return Scores{Host: 0, Guest: 0}
}

func (s Scores) clone() Scores {
	out := make(Scores, 2)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// RevealResult is returned by RevealTile.
type RevealResult struct {
	GameOver         bool
	HitMine          bool
	Reason           Reason
	Winner           Role
	Loser            Role
	AllMines         []Coord
	RevealedTiles    []Tile
	CanPass          bool
	RevealsThisTurn  int
	Scores           Scores
	TimeRemaining    int
	TimerStarted     bool
}

// PassResult is returned by PassTurn.
type PassResult struct {
	NextPlayer    Role
	Scores        Scores
	TimeRemaining int
}

// TimeoutResult is built internally by handleTimeout and passed to the
// dispatcher as the onTimeout callback's argument.
type TimeoutResult struct {
	Player        Role
	GameOver      bool
	AutoPassed    bool
	Reason        Reason
	Winner        Role
	Loser         Role
	NextPlayer    Role
	Scores        Scores
	TimeRemaining int
	AllMines      []Coord
}

// Engine is the per-room Minesweeper game engine described in spec.md §4.2.
type Engine struct {
	mu sync.Mutex

	settings config.GameSettings
	grid     *grid
	rng      *rand.Rand

	currentPlayer  Role
	startingPlayer Role
	lastPassedBy   Role

	revealsThisTurn int
	totalRevealed   int
	scores          Scores

	status Status
	winner Role

	isFirstMove bool
	minesPlaced bool

	timeRemaining int
	ticker        *time.Ticker
	stopTicker    chan struct{}

	onTick    func(timeRemaining int)
	onTimeout func(result TimeoutResult)
}

// NewEngine constructs an engine for one game within a room. onTick fires
// once per second while the countdown runs; onTimeout fires exactly once
// when the countdown reaches zero, carrying the engine's own resolution of
// what happens next (spec.md §4.2 handleTimeout).
func NewEngine(settings config.GameSettings, startingPlayer Role, onTick func(int), onTimeout func(TimeoutResult)) *Engine {
	e := &Engine{
		settings:       settings,
		grid:           newGrid(settings.GridSize),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		currentPlayer:  startingPlayer,
		startingPlayer: startingPlayer,
		scores:         newScores(),
		status:         StatusPlaying,
		isFirstMove:    true,
		onTick:         onTick,
		onTimeout:      onTimeout,
	}
	return e
}

// SetRand overrides the engine's random source, for deterministic tests.
func (e *Engine) SetRand(rng *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rng
}

// CurrentPlayer returns the role whose turn it is.
func (e *Engine) CurrentPlayer() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPlayer
}

// Status returns the engine's lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Winner returns the resolved winner, valid once Status() is StatusFinished.
func (e *Engine) Winner() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winner
}

// TimeRemaining returns the current countdown value, or 0 if no timer has
// started yet.
func (e *Engine) TimeRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeRemaining
}

// Scores returns a snapshot of the current scores.
func (e *Engine) Scores() Scores {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scores.clone()
}

// RevealTile is the engine's response to a reveal_tile intent, spec.md §4.2.
func (e *Engine) RevealTile(x, z int, player Role) (RevealResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusPlaying {
		return RevealResult{}, ErrNotPlaying
	}
	if player != e.currentPlayer {
		return RevealResult{}, ErrNotYourTurn
	}
	if !e.grid.inBounds(x, z) {
		return RevealResult{}, ErrOutOfBounds
	}
	if e.grid.at(x, z).IsRevealed {
		return RevealResult{}, ErrAlreadyRevealed
	}

	firstMoveOfGame := e.isFirstMove
	if !e.minesPlaced {
		e.grid.placeMines(x, z, e.settings.MinesCount, e.rng)
		e.minesPlaced = true
	}

	revealedTiles := e.grid.revealFrom(x, z)
	e.revealsThisTurn += len(revealedTiles)
	e.totalRevealed += len(revealedTiles)

	if !firstMoveOfGame {
		e.scores[player] += len(revealedTiles) * 10
	}

	result := RevealResult{
		RevealedTiles:   revealedTiles,
		RevealsThisTurn: e.revealsThisTurn,
		Scores:          e.scores.clone(),
	}

	if firstMoveOfGame {
		e.isFirstMove = false
		e.startCountdown()
		result.TimerStarted = true
	}

	clickedTile := e.grid.at(x, z)

	switch {
	case clickedTile.IsMine:
		e.finish(player.Opponent())
		result.GameOver = true
		result.HitMine = true
		result.Reason = ReasonHitMine
		result.Winner = player.Opponent()
		result.Loser = player
		result.AllMines = e.grid.allMines()

	case e.totalRevealed >= e.settings.GridSize*e.settings.GridSize-e.settings.MinesCount:
		winner := player
		if e.lastPassedBy != "" {
			winner = e.lastPassedBy
		}
		e.finish(winner)
		result.GameOver = true
		result.Reason = ReasonAllSafeRevealed
		result.Winner = winner
		result.Loser = winner.Opponent()
		result.AllMines = e.grid.allMines()

	default:
		result.CanPass = e.revealsThisTurn >= e.settings.MinRevealsToPass
		result.TimeRemaining = e.timeRemaining
	}

	return result, nil
}

// PassTurn is the engine's response to a pass_turn intent, spec.md §4.2.
func (e *Engine) PassTurn(player Role) (PassResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusPlaying {
		return PassResult{}, ErrNotPlaying
	}
	if player != e.currentPlayer {
		return PassResult{}, ErrNotYourTurn
	}
	if e.revealsThisTurn < e.settings.MinRevealsToPass {
		return PassResult{}, ErrCannotPass
	}

	e.lastPassedBy = player
	e.currentPlayer = player.Opponent()
	e.revealsThisTurn = 0
	e.resetCountdown()

	return PassResult{
		NextPlayer:    e.currentPlayer,
		Scores:        e.scores.clone(),
		TimeRemaining: e.timeRemaining,
	}, nil
}

// handleTimeout resolves a countdown reaching zero. Ticks are idempotent
// against late fires: if the game is no longer playing, this is a no-op
// (spec.md §5 Timer semantics).
func (e *Engine) handleTimeout() {
	e.mu.Lock()

	if e.status != StatusPlaying {
		e.mu.Unlock()
		return
	}

	var result TimeoutResult
	if e.revealsThisTurn == 0 {
		loser := e.currentPlayer
		winner := loser.Opponent()
		e.finish(winner)
		result = TimeoutResult{
			Player:   loser,
			GameOver: true,
			Reason:   ReasonTimeoutNoAction,
			Winner:   winner,
			Loser:    loser,
			Scores:   e.scores.clone(),
			AllMines: e.grid.allMines(),
		}
	} else {
		timedOutPlayer := e.currentPlayer
		e.lastPassedBy = e.currentPlayer
		e.currentPlayer = e.currentPlayer.Opponent()
		e.revealsThisTurn = 0
		e.resetCountdown()
		result = TimeoutResult{
			Player:        timedOutPlayer,
			AutoPassed:    true,
			NextPlayer:    e.currentPlayer,
			Scores:        e.scores.clone(),
			TimeRemaining: e.timeRemaining,
		}
	}

	cb := e.onTimeout
	e.mu.Unlock()

	if cb != nil {
		cb(result)
	}
}

// finish transitions the engine to StatusFinished. Caller must hold e.mu.
func (e *Engine) finish(winner Role) {
	e.status = StatusFinished
	e.winner = winner
	e.stopCountdownLocked()
}

// startCountdown begins the 1Hz ticker at TurnTimeLimit. Caller must hold e.mu.
func (e *Engine) startCountdown() {
	e.timeRemaining = e.settings.TurnTimeLimit
	e.stopCountdownLocked()
	e.stopTicker = make(chan struct{})
	e.ticker = time.NewTicker(time.Second)
	go e.runTicker(e.ticker, e.stopTicker)
}

// resetCountdown restarts the countdown at TurnTimeLimit. Caller must hold e.mu.
func (e *Engine) resetCountdown() {
	if e.ticker == nil {
		return
	}
	e.timeRemaining = e.settings.TurnTimeLimit
}

// stopCountdownLocked stops the ticker goroutine. Caller must hold e.mu.
func (e *Engine) stopCountdownLocked() {
	if e.ticker != nil {
		e.ticker.Stop()
		close(e.stopTicker)
		e.ticker = nil
		e.stopTicker = nil
	}
}

// StopTimer stops the countdown from outside, used when a room tears down
// the engine early (disconnect forfeit, room teardown).
func (e *Engine) StopTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCountdownLocked()
}

func (e *Engine) runTicker(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.status != StatusPlaying {
				e.mu.Unlock()
				return
			}
			e.timeRemaining--
			remaining := e.timeRemaining
			cb := e.onTick
			e.mu.Unlock()

			if cb != nil {
				cb(remaining)
			}

			// After an auto-pass the countdown keeps ticking from the reset
			// value; a terminal timeout closes stop, which ends this loop.
			if remaining <= 0 {
				e.handleTimeout()
			}
		}
	}
}

// GetClientGrid returns the masked grid snapshot for the player audience.
func (e *Engine) GetClientGrid() []ClientTile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid.clientView()
}

// GetFullGridForSpectator returns the unmasked god view for spectators.
func (e *Engine) GetFullGridForSpectator() []SpectatorTile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid.spectatorView()
}

// GetAllMines returns every mine position, used at game end.
func (e *Engine) GetAllMines() []Coord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid.allMines()
}

// StartingPlayer returns the player who opened this game.
func (e *Engine) StartingPlayer() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startingPlayer
}

// RevealsThisTurn returns the current turn's reveal count.
func (e *Engine) RevealsThisTurn() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revealsThisTurn
}

// Settings returns the engine's settings.
func (e *Engine) Settings() config.GameSettings {
	return e.settings
}
