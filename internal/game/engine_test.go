package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/minesarena/server/config"
)

func testSettings() config.GameSettings {
	return config.GameSettings{
		GridSize:         10,
		MinesCount:       10,
		TurnTimeLimit:    30,
		MinRevealsToPass: 1,
	}
}

func newTestEngine(t *testing.T, settings config.GameSettings, seed int64) *Engine {
	t.Helper()
	e := NewEngine(settings, Host, nil, nil)
	e.SetRand(rand.New(rand.NewSource(seed)))
	t.Cleanup(e.StopTimer)
	return e
}

func TestEngine_FirstReveal(t *testing.T) {
	e := newTestEngine(t, testSettings(), 42)

	result, err := e.RevealTile(5, 5, Host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.GameOver {
		t.Fatalf("first reveal should not end the game")
	}
	if len(result.RevealedTiles) < 9 {
		t.Errorf("expected at least the 3x3 safe zone revealed, got %d tiles", len(result.RevealedTiles))
	}
	if result.Scores[Host] != 0 {
		t.Errorf("first click should be score-exempt, got %d", result.Scores[Host])
	}
	if !result.TimerStarted {
		t.Errorf("expected timer to start on first reveal")
	}
	if e.TimeRemaining() != 30 {
		t.Errorf("expected timer at 30, got %d", e.TimeRemaining())
	}
}

func TestEngine_NonCurrentPlayerRejected(t *testing.T) {
	e := newTestEngine(t, testSettings(), 1)
	e.RevealTile(5, 5, Host)

	_, err := e.RevealTile(0, 0, Guest)
	if err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if e.CurrentPlayer() != Host {
		t.Errorf("state must not change on rejected reveal")
	}
}

func TestEngine_PassRequiresReveal(t *testing.T) {
	e := newTestEngine(t, testSettings(), 1)

	_, err := e.PassTurn(Host)
	if err != ErrCannotPass {
		t.Fatalf("expected ErrCannotPass before any reveal, got %v", err)
	}

	e.RevealTile(5, 5, Host)
	result, err := e.PassTurn(Host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NextPlayer != Guest {
		t.Errorf("expected turn to transfer to guest, got %s", result.NextPlayer)
	}
	if e.RevealsThisTurn() != 0 {
		t.Errorf("revealsThisTurn should reset to 0 after pass")
	}
	if e.TimeRemaining() != 30 {
		t.Errorf("expected timer reset to 30, got %d", e.TimeRemaining())
	}
}

func TestEngine_MineHitEndsGame(t *testing.T) {
	settings := config.GameSettings{GridSize: 5, MinesCount: 1, TurnTimeLimit: 30, MinRevealsToPass: 1}
	e := newTestEngine(t, settings, 7)

	// Pin a known layout: a single mine at (0,0), neighborMines recomputed
	// by hand, and mine placement marked as already done.
	e.grid.placeMines(4, 4, 1, rand.New(rand.NewSource(1)))
	for x := 0; x < 5; x++ {
		for z := 0; z < 5; z++ {
			e.grid.at(x, z).IsMine = false
		}
	}
	e.grid.at(0, 0).IsMine = true
	for x := 0; x < 5; x++ {
		for z := 0; z < 5; z++ {
			tile := e.grid.at(x, z)
			if tile.IsMine {
				continue
			}
			count := 0
			for _, n := range e.grid.neighbors8(x, z) {
				if e.grid.at(n.X, n.Z).IsMine {
					count++
				}
			}
			tile.NeighborMines = count
		}
	}
	e.minesPlaced = true
	e.isFirstMove = false

	// (1,1) borders the mine, so this reveal uncovers a single tile instead
	// of flooding every safe tile and ending the game by clearing the board.
	e.RevealTile(1, 1, Host)
	e.PassTurn(Host)

	result, err := e.RevealTile(0, 0, Guest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.GameOver || !result.HitMine {
		t.Fatalf("expected a terminal mine-hit result")
	}
	if result.Winner != Host || result.Loser != Guest {
		t.Errorf("expected host to win, guest to lose; got winner=%s loser=%s", result.Winner, result.Loser)
	}
	if e.Status() != StatusFinished {
		t.Errorf("expected status finished")
	}
}

func TestEngine_AllSafeRevealedWinsCurrentPlayerWhenNoPriorPass(t *testing.T) {
	settings := config.GameSettings{GridSize: 3, MinesCount: 1, TurnTimeLimit: 30, MinRevealsToPass: 1}
	e := newTestEngine(t, settings, 1)

	e.grid.at(0, 0).IsMine = true
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			tile := e.grid.at(x, z)
			if tile.IsMine {
				continue
			}
			count := 0
			for _, n := range e.grid.neighbors8(x, z) {
				if e.grid.at(n.X, n.Z).IsMine {
					count++
				}
			}
			tile.NeighborMines = count
		}
	}
	e.minesPlaced = true

	result, err := e.RevealTile(2, 2, Host)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.GameOver || result.Reason != ReasonAllSafeRevealed {
		t.Fatalf("expected all_safe_revealed terminal, got %+v", result)
	}
	if result.Winner != Host {
		t.Errorf("expected host to win with no prior pass, got %s", result.Winner)
	}
}

func TestEngine_TimeoutWithoutActionForfeits(t *testing.T) {
	settings := config.GameSettings{GridSize: 10, MinesCount: 5, TurnTimeLimit: 1, MinRevealsToPass: 1}

	done := make(chan TimeoutResult, 1)
	e := NewEngine(settings, Host, nil, func(r TimeoutResult) { done <- r })
	e.SetRand(rand.New(rand.NewSource(1)))

	e.RevealTile(5, 5, Host)
	e.PassTurn(Host) // guest's turn, no action taken

	select {
	case result := <-done:
		if !result.GameOver || result.Reason != ReasonTimeoutNoAction {
			t.Fatalf("expected timeout_no_action terminal, got %+v", result)
		}
		if result.Winner != Host || result.Loser != Guest {
			t.Errorf("expected host to win on guest's timeout, got %+v", result)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for onTimeout callback")
	}
}

func TestEngine_TimeoutAfterActionAutoPasses(t *testing.T) {
	settings := config.GameSettings{GridSize: 10, MinesCount: 5, TurnTimeLimit: 1, MinRevealsToPass: 1}

	done := make(chan TimeoutResult, 1)
	e := NewEngine(settings, Host, nil, func(r TimeoutResult) { done <- r })
	e.SetRand(rand.New(rand.NewSource(1)))

	e.RevealTile(5, 5, Host)
	// The host has acted this turn but never passes before the clock runs
	// out, so the timeout auto-passes the turn to the guest.

	select {
	case result := <-done:
		if result.GameOver {
			t.Fatalf("expected an auto-pass, not a terminal result: %+v", result)
		}
		if !result.AutoPassed || result.NextPlayer != Guest {
			t.Errorf("expected auto-pass to guest, got %+v", result)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for onTimeout callback")
	}
}

func TestEngine_HandleTimeoutNoopsAfterGameEnds(t *testing.T) {
	settings := config.GameSettings{GridSize: 3, MinesCount: 1, TurnTimeLimit: 30, MinRevealsToPass: 1}
	e := newTestEngine(t, settings, 1)

	e.grid.at(0, 0).IsMine = true
	e.minesPlaced = true
	e.RevealTile(0, 0, Host) // hits the mine, game ends immediately

	if e.Status() != StatusFinished {
		t.Fatalf("expected finished status")
	}

	// A late tick firing after the game already ended must be a no-op.
	e.handleTimeout()
	if e.Status() != StatusFinished {
		t.Errorf("late timeout must not change a finished game's status")
	}
}
