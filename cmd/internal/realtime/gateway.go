package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"

	"pontoon/cmd/internal/game"
)

const (
	wsDefaultWriteTimeout = 5 * time.Second

	// Only localhost is allowed cross-origin by default; same-host
	// upgrades are always accepted by websocket.Accept.
	wsDefaultOriginPatterns = "localhost,127.0.0.1"
)

// WatchGateway is the WebSocket entrypoint for watching a single game.
// A watcher connects with ?game_id=, immediately receives the current
// snapshot, and then one snapshot per mutation until it disconnects.
type WatchGateway struct {
	log   *slog.Logger
	hub   *Hub
	games *game.Registry

	originPatterns []string
	writeTimeout   time.Duration
}

// NewWatchGateway constructs a gateway over the hub and game registry.
func NewWatchGateway(log *slog.Logger, hub *Hub, games *game.Registry) *WatchGateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log)
	}
	return &WatchGateway{
		log:            log,
		hub:            hub,
		games:          games,
		originPatterns: envCSV("PONTOON_WS_ORIGIN_PATTERNS", wsDefaultOriginPatterns),
		writeTimeout:   envDuration("PONTOON_WS_WRITE_TIMEOUT", wsDefaultWriteTimeout),
	}
}

// HandleWS upgrades the request and streams snapshots for one game.
func (g *WatchGateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	gameID := strings.TrimSpace(r.URL.Query().Get("game_id"))
	if gameID == "" {
		http.Error(w, "missing game_id", http.StatusBadRequest)
		return
	}

	gm, err := g.games.Get(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Info("ws.accept.fail", "game_id", gameID, "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	// Watchers never send; CloseRead gives us a context that cancels when
	// the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ch := g.hub.Subscribe(gameID)
	defer g.hub.Unsubscribe(gameID, ch)

	initial, err := json.Marshal(gm.Snapshot())
	if err != nil {
		g.log.Error("ws.snapshot.fail", "game_id", gameID, "err", err)
		return
	}
	if err := g.write(ctx, conn, initial); err != nil {
		return
	}

	g.log.Info("ws.watch.start", "game_id", gameID, "watchers", g.hub.Watchers(gameID))

	for {
		select {
		case <-ctx.Done():
			g.log.Info("ws.watch.stop", "game_id", gameID)
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := g.write(ctx, conn, payload); err != nil {
				g.log.Info("ws.write.fail",
					"game_id", gameID, "close_status", websocket.CloseStatus(err), "err", err)
				return
			}
		}
	}
}

func (g *WatchGateway) write(parent context.Context, conn *websocket.Conn, payload []byte) error {
	ctx, cancel := context.WithTimeout(parent, g.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func envCSV(key, def string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		v = def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
