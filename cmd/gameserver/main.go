// Package main implements the Minesweeper Arena multiplayer game server.
//
// Architecture Overview:
// - Two WebSocket namespaces: /ws/player (host, guest, public spectators)
//   and /ws/admin (bearer-gated observer surface)
// - Each room owns its own turn-based game engine and a 1Hz countdown
//   driven by a time.Ticker
// - Every chat message and move is journaled to a per-room JSON document
//   by a mutex-guarded write queue
// - A small gin HTTP surface exposes health, default config, and admin
//   login alongside the WebSocket upgrades
//
// Connection Flow:
// 1. Client connects via WebSocket to /ws/player
// 2. Client sends create_room or join_room; server assigns host/guest role
// 3. Once both seats are filled the server starts the engine and
//    broadcasts game_start to players, spectators, and admin observers
// 4. Clients send reveal_tile/pass_turn; server validates, mutates engine
//    state, and broadcasts the authoritative result
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/admin"
	"github.com/minesarena/server/internal/dispatch"
	"github.com/minesarena/server/internal/httpapi"
	"github.com/minesarena/server/internal/journal"
	"github.com/minesarena/server/internal/room"
	"github.com/minesarena/server/internal/transport"
)

// roomCleanupInterval governs how often idle rooms that are not playing
// (waiting or finished) are swept
// (spec.md §5: "Idle room... cleaned up after ROOM_IDLE_TIMEOUT").
const roomCleanupInterval = 5 * time.Minute

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	registry := room.NewRegistry(cfg.RoomCodeLength)
	journalQueue := journal.NewQueue(cfg.DataDir)
	auth := admin.NewAuth(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminJWTSecret)

	playerHub := transport.NewHub()
	adminHub := transport.NewHub()
	observer := admin.NewObserver(registry, adminHub)
	d := dispatch.New(registry, journalQueue, playerHub, observer, cfg.DefaultSettings)

	// Orphaned room documents left over from a crash: anything on disk
	// whose code is no longer in the active registry gets archived before
	// the server starts accepting connections.
	journalQueue.SweepOrphans(func(code string) bool {
		_, found := registry.GetByCode(code)
		return found
	})

	playerServer := transport.NewPlayerServer(playerHub, d, cfg.EnableCORS)
	adminServer := transport.NewAdminServer(adminHub, auth, observer, cfg.EnableCORS)

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux, playerServer, adminServer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.RegisterRoutes(router, httpapi.NewHandler(auth, cfg.DefaultSettings))
	mux.Handle("/", router)

	startCleanup(registry, journalQueue, d, observer, cfg.RoomIdleTimeout)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Printf("=================================")
	log.Printf("  Minesweeper Arena Game Server")
	log.Printf("=================================")
	log.Printf("  Host: %s", cfg.Host)
	log.Printf("  Port: %d", cfg.Port)
	log.Printf("  Grid Size: %d", cfg.DefaultSettings.GridSize)
	log.Printf("  Default Mines: %d", cfg.DefaultSettings.MinesCount)
	log.Printf("  Turn Time Limit: %ds", cfg.DefaultSettings.TurnTimeLimit)
	log.Printf("  Room Code Length: %d", cfg.RoomCodeLength)
	log.Printf("  Room Idle Timeout: %s", cfg.RoomIdleTimeout)
	log.Printf("=================================")
	log.Printf("Server listening on %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// startCleanup runs the idle-room sweep on a fixed interval, archiving
// each swept room's journal.
func startCleanup(registry *room.Registry, journalQueue *journal.Queue, d *dispatch.Dispatcher, observer *admin.Observer, idleTTL time.Duration) {
	go func() {
		ticker := time.NewTicker(roomCleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			codes := registry.CleanupIdleRooms(idleTTL)
			for _, code := range codes {
				journalQueue.Archive(code, "idle timeout")
				d.ForgetRoom(code)
			}
			if len(codes) > 0 {
				observer.NotifyRoomsChanged()
				log.Printf("Cleaned up %d idle rooms", len(codes))
			}
		}
	}()
}
