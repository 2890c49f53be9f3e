package dispatch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/minesarena/server/config"
	"github.com/minesarena/server/internal/journal"
	"github.com/minesarena/server/internal/room"
)

type recordedMessage struct {
	connID string
	msg    ServerMessage
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []recordedMessage
}

func (f *fakeBroadcaster) SendTo(connID string, msg ServerMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedMessage{connID: connID, msg: msg})
}

func (f *fakeBroadcaster) messagesOfType(connID, msgType string) []ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ServerMessage
	for _, r := range f.sent {
		if r.connID == connID && r.msg.Type == msgType {
			out = append(out, r.msg)
		}
	}
	return out
}

type fakeAdmin struct{}

func (fakeAdmin) NotifyRoomsChanged()                                  {}
func (fakeAdmin) MirrorToAdminSpectators(roomCode string, msg ServerMessage) {}

func testSettings() config.GameSettings {
	return config.GameSettings{GridSize: 10, MinesCount: 5, TurnTimeLimit: 30, MinRevealsToPass: 1}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeBroadcaster) {
	t.Helper()
	dir := t.TempDir()
	reg := room.NewRegistry(6)
	jq := journal.NewQueue(dir)
	broadcaster := &fakeBroadcaster{}
	d := New(reg, jq, broadcaster, fakeAdmin{}, testSettings())
	return d, broadcaster
}

func payload(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func TestDispatcher_CreateAndJoinStartsGame(t *testing.T) {
	d, b := newTestDispatcher(t)

	d.handleCreateRoom("host-conn", payload(createRoomPayload{PlayerName: "Alice"}))
	created := b.messagesOfType("host-conn", "room_created")
	if len(created) != 1 {
		t.Fatalf("expected 1 room_created message, got %d", len(created))
	}
	roomCode := created[0].Payload.(roomCreatedPayload).RoomCode

	d.handleJoinRoom("guest-conn", payload(joinRoomPayload{RoomCode: roomCode, PlayerName: "Bob"}))

	if len(b.messagesOfType("guest-conn", "room_joined")) != 1 {
		t.Fatalf("expected room_joined for guest")
	}
	if len(b.messagesOfType("host-conn", "game_start")) != 1 {
		t.Fatalf("expected game_start broadcast to host")
	}
	if len(b.messagesOfType("guest-conn", "game_start")) != 1 {
		t.Fatalf("expected game_start broadcast to guest")
	}
}

func TestDispatcher_RevealRejectsWrongTurn(t *testing.T) {
	d, b := newTestDispatcher(t)

	d.handleCreateRoom("host-conn", payload(createRoomPayload{PlayerName: "Alice"}))
	roomCode := b.messagesOfType("host-conn", "room_created")[0].Payload.(roomCreatedPayload).RoomCode
	d.handleJoinRoom("guest-conn", payload(joinRoomPayload{RoomCode: roomCode, PlayerName: "Bob"}))

	d.handleRevealTile("guest-conn", payload(revealTilePayload{X: 0, Z: 0}))

	errs := b.messagesOfType("guest-conn", "error")
	if len(errs) != 1 {
		t.Fatalf("expected an error reply for the guest's out-of-turn reveal, got %d", len(errs))
	}
}

func TestDispatcher_RevealThenPassTransfersTurn(t *testing.T) {
	d, b := newTestDispatcher(t)

	d.handleCreateRoom("host-conn", payload(createRoomPayload{PlayerName: "Alice"}))
	roomCode := b.messagesOfType("host-conn", "room_created")[0].Payload.(roomCreatedPayload).RoomCode
	d.handleJoinRoom("guest-conn", payload(joinRoomPayload{RoomCode: roomCode, PlayerName: "Bob"}))

	d.handleRevealTile("host-conn", payload(revealTilePayload{X: 5, Z: 5}))
	if len(b.messagesOfType("host-conn", "tile_revealed")) != 1 {
		t.Fatalf("expected tile_revealed broadcast")
	}

	d.handlePassTurn("host-conn")
	turns := b.messagesOfType("guest-conn", "turn_changed")
	if len(turns) != 1 {
		t.Fatalf("expected turn_changed broadcast to guest")
	}
	if turns[0].Payload.(turnChangedPayload).CurrentPlayer != "guest" {
		t.Errorf("expected turn to pass to guest")
	}
}

func TestDispatcher_ChatRateLimitDropsBurst(t *testing.T) {
	d, b := newTestDispatcher(t)

	d.handleCreateRoom("host-conn", payload(createRoomPayload{PlayerName: "Alice"}))
	roomCode := b.messagesOfType("host-conn", "room_created")[0].Payload.(roomCreatedPayload).RoomCode

	d.handleSendDanmaku("host-conn", payload(sendDanmakuPayload{RoomCode: roomCode, Message: "hi", Nickname: "Alice"}))
	d.handleSendDanmaku("host-conn", payload(sendDanmakuPayload{RoomCode: roomCode, Message: "hi again", Nickname: "Alice"}))

	msgs := b.messagesOfType("host-conn", "danmaku")
	if len(msgs) != 1 {
		t.Fatalf("expected the second rapid chat to be dropped, got %d delivered", len(msgs))
	}
}

func TestDispatcher_DisconnectMidGameForfeits(t *testing.T) {
	d, b := newTestDispatcher(t)

	d.handleCreateRoom("host-conn", payload(createRoomPayload{PlayerName: "Alice"}))
	roomCode := b.messagesOfType("host-conn", "room_created")[0].Payload.(roomCreatedPayload).RoomCode
	d.handleJoinRoom("guest-conn", payload(joinRoomPayload{RoomCode: roomCode, PlayerName: "Bob"}))

	d.HandleDisconnect("guest-conn")

	overs := b.messagesOfType("host-conn", "game_over")
	if len(overs) != 1 {
		t.Fatalf("expected host to receive a game_over forfeit, got %d", len(overs))
	}
	payload := overs[0].Payload.(gameOverPayload)
	if payload.Winner != "host" || payload.Loser != "guest" {
		t.Errorf("expected host to win on guest disconnect, got %+v", payload)
	}
}

func TestDispatcher_HostLeaveDeletesRoom(t *testing.T) {
	d, b := newTestDispatcher(t)

	d.handleCreateRoom("host-conn", payload(createRoomPayload{PlayerName: "Alice"}))
	roomCode := b.messagesOfType("host-conn", "room_created")[0].Payload.(roomCreatedPayload).RoomCode

	d.HandleDisconnect("host-conn")

	if _, found := d.registry.GetByCode(roomCode); found {
		t.Errorf("expected room to be deleted once the host disconnects before a guest joins")
	}
}
