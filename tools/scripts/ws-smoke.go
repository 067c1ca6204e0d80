// Package main provides a CI-friendly smoke test for the pontoon server.
//
// It validates:
//   - game creation and enrollment over the HTTP API
//   - WebSocket watch handshake against /ws
//   - snapshot fanout on every mutation
//   - a full round (close -> stands -> dealer) reaching the finished phase
//   - the archived result being readable afterwards
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const maxReadBytes = 1 << 20 // 1MiB

type gameSnapshot struct {
	GameID        string   `json:"game_id"`
	Phase         string   `json:"phase"`
	CurrentPlayer string   `json:"current_player"`
	TurnOrder     []string `json:"turn_order"`
	Result        *struct {
		Players []struct {
			Email   string `json:"email"`
			Outcome string `json:"outcome"`
		} `json:"players"`
	} `json:"result"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		origin  = flag.String("origin", "http://localhost", "Origin header for the WS handshake")
		timeout = flag.Duration("timeout", 10*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	ctx := context.Background()
	const host = "host@smoke.local"
	const guest = "guest@smoke.local"

	var created struct {
		GameID string `json:"game_id"`
	}
	mustPost(ctx, *baseURL, "/v1/games", map[string]any{"creator_id": host}, &created, *timeout)
	if created.GameID == "" {
		fatalf("create game: empty game_id")
	}
	if *verbose {
		fmt.Printf("created game %s\n", created.GameID)
	}

	conn, inbox := mustWatch(ctx, *baseURL, *origin, created.GameID, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	gamePath := "/v1/games/" + created.GameID
	mustPost(ctx, *baseURL, gamePath+"/enroll", map[string]any{"email": host}, nil, *timeout)
	mustPost(ctx, *baseURL, gamePath+"/enroll", map[string]any{"email": guest}, nil, *timeout)

	var closed struct {
		TurnOrder []string `json:"turn_order"`
	}
	mustPost(ctx, *baseURL, gamePath+"/close", map[string]any{"caller_id": host}, &closed, *timeout)
	if len(closed.TurnOrder) != 2 {
		fatalf("close: turn_order=%v", closed.TurnOrder)
	}

	for _, email := range closed.TurnOrder {
		mustPost(ctx, *baseURL, gamePath+"/stand", map[string]any{"email": email}, nil, *timeout)
	}

	final := mustWaitPhase(ctx, inbox, "finished", *timeout)
	if final.Result == nil || len(final.Result.Players) != 2 {
		fatalf("finished snapshot missing result: %+v", final)
	}

	var res struct {
		GameID  string          `json:"game_id"`
		Players json.RawMessage `json:"players"`
	}
	mustGet(ctx, *baseURL, gamePath+"/results", &res, *timeout)
	if res.GameID != created.GameID {
		fatalf("results game_id mismatch: got=%q want=%q", res.GameID, created.GameID)
	}

	var archived struct {
		Results []struct {
			GameID string `json:"game_id"`
		} `json:"results"`
	}
	mustGet(ctx, *baseURL, "/v1/results?limit=5", &archived, *timeout)
	found := false
	for _, r := range archived.Results {
		if r.GameID == created.GameID {
			found = true
			break
		}
	}
	if !found {
		fatalf("archive missing game %s", created.GameID)
	}

	fmt.Printf("OK: game_id=%s players=%v\n", created.GameID, closed.TurnOrder)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func wsURL(base, gameID string) string {
	ws := strings.Replace(base, "http", "ws", 1)
	return ws + "/ws?game_id=" + url.QueryEscape(gameID)
}

// mustWatch dials the watch endpoint and pumps decoded snapshots into the
// returned channel until the connection drops.
func mustWatch(parent context.Context, base, origin, gameID string, stepTimeout time.Duration) (*websocket.Conn, <-chan gameSnapshot) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	h := http.Header{}
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}

	conn, resp, err := websocket.Dial(ctx, wsURL(base, gameID), &websocket.DialOptions{HTTPHeader: h})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("watch dial: %v", err)
	}
	conn.SetReadLimit(maxReadBytes)

	inbox := make(chan gameSnapshot, 64)
	go func() {
		defer close(inbox)
		for {
			_, data, err := conn.Read(context.Background())
			if err != nil {
				return
			}
			var snap gameSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				continue
			}
			select {
			case inbox <- snap:
			default:
			}
		}
	}()

	// The gateway sends the current snapshot right after the handshake.
	first := mustWaitPhase(parent, inbox, "", stepTimeout)
	if first.GameID != gameID {
		fatalf("initial snapshot game_id mismatch: got=%q want=%q", first.GameID, gameID)
	}
	return conn, inbox
}

// mustWaitPhase reads snapshots until one matches phase (empty matches any).
func mustWaitPhase(parent context.Context, inbox <-chan gameSnapshot, phase string, stepTimeout time.Duration) gameSnapshot {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			fatalf("timeout waiting for snapshot phase=%q: %v", phase, ctx.Err())
		case snap, ok := <-inbox:
			if !ok {
				fatalf("watch connection closed waiting for phase=%q", phase)
			}
			if phase == "" || snap.Phase == phase {
				return snap
			}
		}
	}
}

func mustPost(parent context.Context, base, path string, body any, out any, stepTimeout time.Duration) {
	doJSON(parent, http.MethodPost, base, path, body, out, stepTimeout)
}

func mustGet(parent context.Context, base, path string, out any, stepTimeout time.Duration) {
	doJSON(parent, http.MethodGet, base, path, nil, out, stepTimeout)
}

func doJSON(parent context.Context, method, base, path string, body, out any, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			fatalf("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		fatalf("request %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		fatalf("%s %s: status=%d body=%s", method, path, resp.StatusCode, buf.String())
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
