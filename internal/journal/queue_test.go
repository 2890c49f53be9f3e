package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minesarena/server/config"
)

func testSettings() config.GameSettings {
	return config.GameSettings{GridSize: 10, MinesCount: 18, TurnTimeLimit: 30, MinRevealsToPass: 1}
}

func waitForFile(t *testing.T, path string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
	return nil
}

func TestQueue_CreateRoomWritesFile(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue(dir)

	q.CreateRoom("ABC123", "Alice", testSettings())

	data := waitForFile(t, filepath.Join(dir, "rooms", "ABC123.json"))
	var doc RoomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON written: %v", err)
	}
	if doc.HostName != "Alice" {
		t.Errorf("expected host name Alice, got %q", doc.HostName)
	}
	if doc.RoomCode != "ABC123" {
		t.Errorf("expected roomCode ABC123, got %q", doc.RoomCode)
	}
}

func TestQueue_SerializesConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue(dir)
	q.CreateRoom("ROOM01", "Alice", testSettings())

	const n = 50
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		i := i
		go func() {
			q.Enqueue("ROOM01", func(d *RoomDocument) {
				d.AppendEvent("test_event", "seq")
				_ = i
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	// Drain by enqueuing a final task and waiting for it to observe the
	// accumulated state.
	result := make(chan int, 1)
	q.Enqueue("ROOM01", func(d *RoomDocument) {
		result <- len(d.Events)
	})

	select {
	case count := <-result:
		if count != n {
			t.Errorf("expected %d events recorded, got %d", n, count)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for journal drain")
	}
}

func TestQueue_ArchiveMovesFile(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue(dir)
	q.CreateRoom("XYZ999", "Alice", testSettings())

	q.Archive("XYZ999", "test close")

	if _, err := os.Stat(filepath.Join(dir, "rooms", "XYZ999.json")); !os.IsNotExist(err) {
		t.Errorf("expected active room file to be gone after archival")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("failed to read archive dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 archived file, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, "archive", entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read archived file: %v", err)
	}
	var doc RoomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid archived JSON: %v", err)
	}
	if doc.ClosedAt.IsZero() {
		t.Errorf("expected closedAt to be stamped")
	}
	found := false
	for _, e := range doc.Events {
		if e.Type == "room_closed" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a room_closed event in archived document")
	}
}

func TestQueue_AppendMoveIgnoresOutOfRangeIndex(t *testing.T) {
	doc := newDocument("ABC123", testSettings())
	doc.AppendMove(5, MoveEntry{Action: "reveal"})
	if len(doc.Games) != 0 {
		t.Errorf("expected no games created by an out-of-range AppendMove")
	}
}
