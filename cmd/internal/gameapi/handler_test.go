package gameapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"pontoon/cmd/internal/game"
	"pontoon/cmd/internal/history"
	"pontoon/cmd/internal/invite"
	"pontoon/cmd/internal/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := testLogger()
	games := game.NewRegistry(log)
	invites, err := invite.NewService(log, games)
	if err != nil {
		t.Fatalf("invite service: %v", err)
	}
	archive := history.NewMemoryStore()

	h, err := NewHandler(log, games, invites, archive, realtime.NewHub(log), NewMetrics(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil), returning the status code.
func do(t *testing.T, srv *httptest.Server, method, path string, body, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestFullGameOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	const host = "host@example.com"
	const guest = "guest@example.com"

	var created createGameResponse
	if code := do(t, srv, http.MethodPost, "/v1/games",
		map[string]any{"creator_id": host}, &created); code != http.StatusCreated {
		t.Fatalf("create game status = %d", code)
	}
	if created.GameID == "" {
		t.Fatal("create game returned empty id")
	}
	gamePath := "/v1/games/" + created.GameID

	var enrolled enrollResponse
	if code := do(t, srv, http.MethodPost, gamePath+"/enroll",
		map[string]any{"email": host}, &enrolled); code != http.StatusOK {
		t.Fatalf("enroll status = %d", code)
	}
	if enrolled.Position != 1 {
		t.Fatalf("host position = %d, want 1", enrolled.Position)
	}

	// The guest joins via an invitation rather than direct enrollment.
	var inv invite.Invitation
	if code := do(t, srv, http.MethodPost, "/v1/invitations",
		map[string]any{"game_id": created.GameID, "inviter": host, "invitee": guest}, &inv); code != http.StatusCreated {
		t.Fatalf("create invitation status = %d", code)
	}

	var pending invitationListResponse
	if code := do(t, srv, http.MethodGet, "/v1/invitations?email="+guest, nil, &pending); code != http.StatusOK {
		t.Fatalf("list invitations status = %d", code)
	}
	if len(pending.Invitations) != 1 || pending.Invitations[0].ID != inv.ID {
		t.Fatalf("pending invitations = %+v, want the one just created", pending.Invitations)
	}

	var accepted acceptResponse
	if code := do(t, srv, http.MethodPost, "/v1/invitations/"+inv.ID+"/accept",
		map[string]any{"email": guest}, &accepted); code != http.StatusOK {
		t.Fatalf("accept status = %d", code)
	}
	if accepted.Position != 2 {
		t.Fatalf("guest position = %d, want 2", accepted.Position)
	}

	var closed closeResponse
	if code := do(t, srv, http.MethodPost, gamePath+"/close",
		map[string]any{"caller_id": host}, &closed); code != http.StatusOK {
		t.Fatalf("close status = %d", code)
	}
	if len(closed.TurnOrder) != 2 || closed.CurrentPlayer == "" {
		t.Fatalf("close response = %+v", closed)
	}

	// Late joiners are shut out once play starts.
	if code := do(t, srv, http.MethodPost, gamePath+"/enroll",
		map[string]any{"email": "late@example.com"}, nil); code != http.StatusConflict {
		t.Fatalf("late enroll status = %d, want 409", code)
	}

	// Out-of-turn actions are rejected.
	notCurrent := closed.TurnOrder[1]
	if code := do(t, srv, http.MethodPost, gamePath+"/draw",
		map[string]any{"email": notCurrent}, nil); code != http.StatusForbidden {
		t.Fatalf("out-of-turn draw status = %d, want 403", code)
	}

	// Flipping a card nobody holds fails validation.
	if code := do(t, srv, http.MethodPost, gamePath+"/ace",
		map[string]any{"email": closed.CurrentPlayer, "card_id": "AS", "as_eleven": true}, nil); code != http.StatusBadRequest {
		t.Fatalf("bogus ace flip status = %d, want 400", code)
	}

	// Both players stand; the dealer then plays and the game finishes.
	var finished bool
	for _, email := range closed.TurnOrder {
		var stood standResponse
		if code := do(t, srv, http.MethodPost, gamePath+"/stand",
			map[string]any{"email": email}, &stood); code != http.StatusOK {
			t.Fatalf("stand %s status = %d", email, code)
		}
		finished = stood.Finished
	}
	if !finished {
		t.Fatal("game did not finish after every player stood")
	}

	var snap game.Snapshot
	if code := do(t, srv, http.MethodGet, gamePath, nil, &snap); code != http.StatusOK {
		t.Fatalf("get game status = %d", code)
	}
	if snap.Phase != game.PhaseFinished || snap.Result == nil {
		t.Fatalf("snapshot phase = %q, result = %v", snap.Phase, snap.Result)
	}

	var res game.Result
	if code := do(t, srv, http.MethodGet, gamePath+"/results", nil, &res); code != http.StatusOK {
		t.Fatalf("results status = %d", code)
	}
	if res.GameID != created.GameID || len(res.Players) != 2 {
		t.Fatalf("result = %+v", res)
	}

	var arch struct {
		Results []history.Record `json:"results"`
	}
	if code := do(t, srv, http.MethodGet, "/v1/results", nil, &arch); code != http.StatusOK {
		t.Fatalf("archive status = %d", code)
	}
	if len(arch.Results) != 1 || arch.Results[0].GameID != created.GameID {
		t.Fatalf("archive = %+v, want the finished game", arch.Results)
	}
}

func TestGameLookupAndValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	if code := do(t, srv, http.MethodGet, "/v1/games/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown game status = %d, want 404", code)
	}
	if code := do(t, srv, http.MethodPost, "/v1/games",
		map[string]any{"creator_id": ""}, nil); code != http.StatusBadRequest {
		t.Fatalf("empty creator status = %d, want 400", code)
	}
	if code := do(t, srv, http.MethodPost, "/v1/invitations/nope/accept",
		map[string]any{"email": "a@example.com"}, nil); code != http.StatusNotFound {
		t.Fatalf("unknown invitation status = %d, want 404", code)
	}
	if code := do(t, srv, http.MethodGet, "/v1/invitations", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("invitation list without email status = %d, want 400", code)
	}
	if code := do(t, srv, http.MethodGet, "/v1/results?limit=abc", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", code)
	}
}

func TestForceFinishIsCreatorOnly(t *testing.T) {
	srv := newTestServer(t)

	const host = "host@example.com"
	const other = "other@example.com"

	var created createGameResponse
	if code := do(t, srv, http.MethodPost, "/v1/games",
		map[string]any{"creator_id": host}, &created); code != http.StatusCreated {
		t.Fatalf("create game status = %d", code)
	}
	gamePath := "/v1/games/" + created.GameID

	for _, email := range []string{host, other} {
		if code := do(t, srv, http.MethodPost, gamePath+"/enroll",
			map[string]any{"email": email}, nil); code != http.StatusOK {
			t.Fatalf("enroll %s failed", email)
		}
	}
	if code := do(t, srv, http.MethodPost, gamePath+"/close",
		map[string]any{"caller_id": host}, nil); code != http.StatusOK {
		t.Fatal("close failed")
	}

	if code := do(t, srv, http.MethodPost, gamePath+"/finish",
		map[string]any{"caller_id": other}, nil); code != http.StatusForbidden {
		t.Fatalf("non-creator finish status = %d, want 403", code)
	}

	var res game.Result
	if code := do(t, srv, http.MethodPost, gamePath+"/finish",
		map[string]any{"caller_id": host}, &res); code != http.StatusOK {
		t.Fatalf("creator finish status = %d", code)
	}
	if len(res.Players) != 2 {
		t.Fatalf("forced result players = %d, want 2", len(res.Players))
	}

	// A second finish is a conflict: the game is already done.
	if code := do(t, srv, http.MethodPost, gamePath+"/finish",
		map[string]any{"caller_id": host}, nil); code != http.StatusConflict {
		t.Fatalf("double finish status = %d, want 409", code)
	}
}
