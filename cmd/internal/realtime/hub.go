// Package realtime streams game snapshots to WebSocket watchers. The feed
// is read-only: every mutation still travels over HTTP, and the hub fans
// the resulting snapshot out to whoever is watching that game.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"pontoon/cmd/internal/game"
)

// subscriberBuffer is the per-watcher queue; a watcher that falls this far
// behind starts losing intermediate snapshots (each snapshot is complete,
// so skipping is safe).
const subscriberBuffer = 16

// Hub fans out per-game snapshots to subscribers.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	topics map[string]map[chan []byte]struct{}
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:    log,
		topics: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe registers a watcher for gameID and returns its receive channel.
func (h *Hub) Subscribe(gameID string) chan []byte {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[gameID]
	if subs == nil {
		subs = make(map[chan []byte]struct{})
		h.topics[gameID] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a watcher and closes its channel.
func (h *Hub) Unsubscribe(gameID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[gameID]
	if subs == nil {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(h.topics, gameID)
	}
	close(ch)
}

// Publish serializes the snapshot once and delivers it to every watcher of
// the game. Sends never block: a full queue drops this snapshot for that
// watcher.
func (h *Hub) Publish(snap game.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.log.Error("hub.marshal.fail", "game_id", snap.GameID, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.topics[snap.GameID] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Watchers reports the number of subscribers for a game.
func (h *Hub) Watchers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[gameID])
}
