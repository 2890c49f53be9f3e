package journal

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/minesarena/server/config"
)

// Task is a read-modify-write continuation applied to a room's document.
type Task func(*RoomDocument)

// actor is one room's write queue: a pending task slice guarded by the
// owning Queue's lock, and a seed used to materialise the document if no
// file exists yet. Using the Queue's single lock (rather than an
// independently-raced channel) keeps the "pop last task, then delete
// myself" decision atomic: nothing can append to a pending slice after
// its actor has already removed itself from the map.
type actor struct {
	pending []Task
	seed    func() *RoomDocument
}

// Queue owns one actor per active room and the on-disk layout under
// dataDir. An actor self-removes once its pending slice drains, so
// long-lived servers do not leak queue state for closed rooms (spec.md §9
// Design Notes: "the actor ends when its room archives").
type Queue struct {
	mu      sync.Mutex
	actors  map[string]*actor
	dataDir string
}

// NewQueue creates a journal queue rooted at dataDir, creating the
// rooms/ and archive/ subdirectories if they do not already exist.
func NewQueue(dataDir string) *Queue {
	os.MkdirAll(filepath.Join(dataDir, "rooms"), 0o755)
	os.MkdirAll(filepath.Join(dataDir, "archive"), 0o755)
	return &Queue{
		actors:  make(map[string]*actor),
		dataDir: dataDir,
	}
}

func (q *Queue) roomPath(code string) string {
	return filepath.Join(q.dataDir, "rooms", code+".json")
}

// Enqueue appends task to the room's actor, spawning the actor on first
// use. Tasks run strictly in arrival order against the document loaded
// from disk, each write persisted before the next task begins.
func (q *Queue) Enqueue(code string, task Task) {
	q.enqueueWith(code, task, nil)
}

// CreateRoom seeds a brand-new room document and enqueues its initial
// write, so the file exists on disk as soon as a room is created.
func (q *Queue) CreateRoom(code, hostName string, settings config.GameSettings) {
	q.enqueueWith(code, func(d *RoomDocument) {
		d.HostName = hostName
	}, func() *RoomDocument {
		return newDocument(code, settings)
	})
}

func (q *Queue) enqueueWith(code string, task Task, seed func() *RoomDocument) {
	q.mu.Lock()
	a, exists := q.actors[code]
	if !exists {
		a = &actor{seed: seed}
		q.actors[code] = a
	}
	a.pending = append(a.pending, task)
	q.mu.Unlock()

	if !exists {
		go q.run(code, a)
	}
}

// run drains a's pending slice in order until it is empty, then removes a
// from the queue table. The drain check and the removal happen under the
// same lock acquisition, so a task appended concurrently is always either
// seen by this drain or handed to a freshly spawned actor.
func (q *Queue) run(code string, a *actor) {
	for {
		q.mu.Lock()
		if len(a.pending) == 0 {
			delete(q.actors, code)
			q.mu.Unlock()
			return
		}
		task := a.pending[0]
		a.pending = a.pending[1:]
		seed := a.seed
		a.seed = nil
		q.mu.Unlock()

		q.applyTask(code, task, seed)
	}
}

func (q *Queue) applyTask(code string, task Task, seed func() *RoomDocument) {
	doc, err := q.load(code, seed)
	if err != nil {
		log.Printf("journal: failed to load room %s: %v", code, err)
		return
	}

	task(doc)

	if err := q.save(code, doc); err != nil {
		log.Printf("journal: failed to save room %s: %v", code, err)
	}
}

func (q *Queue) load(code string, seed func() *RoomDocument) (*RoomDocument, error) {
	data, err := os.ReadFile(q.roomPath(code))
	if err != nil {
		if os.IsNotExist(err) {
			if seed != nil {
				return seed(), nil
			}
			return nil, fmt.Errorf("room %s has no journal and no seed", code)
		}
		return nil, err
	}

	var doc RoomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (q *Queue) save(code string, doc *RoomDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.roomPath(code), data, 0o644)
}

// Archive stamps closedAt, appends a room_closed event, and moves the room
// file from rooms/ to archive/{CODE}_{YYYYMMDD}_{HHMMSS}.json. It blocks
// until every previously enqueued write for the room has drained, so the
// archived copy reflects the room's complete history.
func (q *Queue) Archive(code, reason string) {
	q.enqueueWith(code, func(d *RoomDocument) {
		d.ClosedAt = time.Now()
		d.AppendEvent("room_closed", reason)
	}, nil)

	// The room's actor removes itself only after its last task has been
	// saved, so once it is gone no save can overlap or follow the move.
	for {
		q.mu.Lock()
		_, busy := q.actors[code]
		q.mu.Unlock()
		if !busy {
			break
		}
		time.Sleep(time.Millisecond)
	}
	q.moveToArchive(code)
}

func (q *Queue) moveToArchive(code string) {
	src := q.roomPath(code)
	data, err := os.ReadFile(src)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("journal: failed to read room %s for archival: %v", code, err)
		}
		return
	}

	stamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(q.dataDir, "archive", fmt.Sprintf("%s_%s.json", code, stamp))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		log.Printf("journal: failed to write archive for room %s: %v", code, err)
		return
	}
	os.Remove(src)
}

// SweepOrphans archives any file under rooms/ whose code is no longer
// active per isActive, so a server restart with stale active-directory
// files does not leave them behind forever.
func (q *Queue) SweepOrphans(isActive func(code string) bool) {
	entries, err := os.ReadDir(filepath.Join(q.dataDir, "rooms"))
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		code := entry.Name()[:len(entry.Name())-len(filepath.Ext(entry.Name()))]
		if !isActive(code) {
			q.Archive(code, "orphan sweep")
		}
	}
}
