package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"pontoon/cmd/internal/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubFanOut(t *testing.T) {
	h := NewHub(testLogger())

	ch1 := h.Subscribe("g1")
	ch2 := h.Subscribe("g1")
	other := h.Subscribe("g2")

	h.Publish(game.Snapshot{GameID: "g1", Phase: game.PhasePlaying})

	for i, ch := range []chan []byte{ch1, ch2} {
		select {
		case payload := <-ch:
			var snap game.Snapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				t.Fatalf("subscriber %d payload: %v", i, err)
			}
			if snap.GameID != "g1" || snap.Phase != game.PhasePlaying {
				t.Fatalf("subscriber %d got %+v", i, snap)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}

	select {
	case payload := <-other:
		t.Fatalf("g2 watcher received g1 snapshot: %s", payload)
	default:
	}
}

func TestHubSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(testLogger())
	ch := h.Subscribe("g1")

	// Overfill the queue; Publish must never block.
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(game.Snapshot{GameID: "g1"})
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("queued %d payloads, want %d", got, subscriberBuffer)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(testLogger())
	ch := h.Subscribe("g1")

	if h.Watchers("g1") != 1 {
		t.Fatalf("watchers = %d, want 1", h.Watchers("g1"))
	}

	h.Unsubscribe("g1", ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
	if h.Watchers("g1") != 0 {
		t.Fatalf("watchers = %d after unsubscribe", h.Watchers("g1"))
	}

	// Double unsubscribe must not panic on the closed channel.
	h.Unsubscribe("g1", ch)
	h.Publish(game.Snapshot{GameID: "g1"})
}
