package gameapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pontoon/cmd/internal/game"
	"pontoon/cmd/internal/history"
	"pontoon/cmd/internal/invite"
	"pontoon/cmd/internal/realtime"
)

const defaultMaxBodyBytes = 1 << 20

// Handler wires the HTTP game endpoints to the registry, invitation
// service, result archive and watch hub.
type Handler struct {
	log     *slog.Logger
	games   *game.Registry
	invites *invite.Service
	archive history.Store
	hub     *realtime.Hub
	metrics *Metrics

	maxBodyBytes int64
}

// NewHandler constructs the game API handler. archive, hub and metrics may
// be nil; in-memory stand-ins are used so tests can wire only what they need.
func NewHandler(log *slog.Logger, games *game.Registry, invites *invite.Service, archive history.Store, hub *realtime.Hub, metrics *Metrics) (*Handler, error) {
	if games == nil {
		return nil, errors.New("gameapi: nil game registry")
	}
	if invites == nil {
		return nil, errors.New("gameapi: nil invitation service")
	}
	if log == nil {
		log = slog.Default()
	}
	if archive == nil {
		archive = history.NewMemoryStore()
	}
	if hub == nil {
		hub = realtime.NewHub(log)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Handler{
		log:          log,
		games:        games,
		invites:      invites,
		archive:      archive,
		hub:          hub,
		metrics:      metrics,
		maxBodyBytes: defaultMaxBodyBytes,
	}, nil
}

// Register wires the game routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /v1/games", h.handleCreateGame)
	mux.HandleFunc("GET /v1/games/{id}", h.handleGetGame)
	mux.HandleFunc("POST /v1/games/{id}/enroll", h.handleEnroll)
	mux.HandleFunc("POST /v1/games/{id}/close", h.handleCloseEnrollment)
	mux.HandleFunc("POST /v1/games/{id}/draw", h.handleDraw)
	mux.HandleFunc("POST /v1/games/{id}/ace", h.handleSetAce)
	mux.HandleFunc("POST /v1/games/{id}/stand", h.handleStand)
	mux.HandleFunc("POST /v1/games/{id}/finish", h.handleFinish)
	mux.HandleFunc("GET /v1/games/{id}/results", h.handleGameResults)
	mux.HandleFunc("POST /v1/invitations", h.handleInviteCreate)
	mux.HandleFunc("POST /v1/invitations/{id}/accept", h.handleInviteAccept)
	mux.HandleFunc("POST /v1/invitations/{id}/decline", h.handleInviteDecline)
	mux.HandleFunc("GET /v1/invitations", h.handleInviteList)
	mux.HandleFunc("GET /v1/results", h.handleArchive)
}

// lookupGame resolves the {id} path segment; on failure it writes the error
// response and returns ok=false.
func (h *Handler) lookupGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	gm, err := h.games.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return gm, true
}

// publish fans the game's fresh snapshot out to watchers. When the mutation
// just finished the game, the result is also archived; only the single
// successful call that flipped the phase gets finished=true, so the archive
// sees each game once.
func (h *Handler) publish(r *http.Request, gm *game.Game, finished bool) {
	snap := gm.Snapshot()
	h.hub.Publish(snap)
	if !finished {
		return
	}
	h.metrics.GamesFinished.Inc()
	if snap.Result == nil {
		return
	}
	if err := h.archive.Save(r.Context(), history.RecordOf(*snap.Result)); err != nil {
		h.log.Error("gameapi.archive.save.fail", "game_id", snap.GameID, "err", err)
	}
}

// ---- game handlers ----

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	gm, err := h.games.Create(r.Context(), game.CreateInput{
		CreatorID:         req.CreatorID,
		EnrollmentTimeout: time.Duration(req.EnrollmentTimeoutSeconds) * time.Second,
		Rules: game.Rules{
			MaxPlayers:       req.MaxPlayers,
			DealerHitsSoft17: req.DealerHitsSoft17,
		},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.metrics.GamesCreated.Inc()
	writeJSON(w, http.StatusCreated, createGameResponse{
		GameID:             gm.ID(),
		CreatorID:          gm.CreatorID(),
		EnrollmentDeadline: gm.Deadline(),
	})
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, gm.Snapshot())
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	var req enrollRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	pos, err := gm.Enroll(req.Email, time.Time{})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.publish(r, gm, false)
	writeJSON(w, http.StatusOK, enrollResponse{GameID: gm.ID(), Email: req.Email, Position: pos})
}

func (h *Handler) handleCloseEnrollment(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	var req closeRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	order, err := gm.CloseEnrollment(req.CallerID, time.Time{})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.publish(r, gm, false)
	resp := closeResponse{GameID: gm.ID(), TurnOrder: order}
	if len(order) > 0 {
		resp.CurrentPlayer = order[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	var req playerRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	res, err := gm.Draw(req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.metrics.CardsDrawn.Inc()
	h.publish(r, gm, res.Finished)
	writeJSON(w, http.StatusOK, drawResponse{
		Card:       res.Card,
		Points:     res.Points,
		Busted:     res.Busted,
		NextPlayer: res.NextPlayer,
		Finished:   res.Finished,
	})
}

func (h *Handler) handleSetAce(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	var req aceRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	res, err := gm.SetAceValue(req.Email, req.CardID, req.AsEleven)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.publish(r, gm, res.Finished)
	writeJSON(w, http.StatusOK, aceResponse{Points: res.Points, Busted: res.Busted, Finished: res.Finished})
}

func (h *Handler) handleStand(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	var req playerRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	res, err := gm.Stand(req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.publish(r, gm, res.Finished)
	writeJSON(w, http.StatusOK, standResponse{
		Points:     res.Points,
		Busted:     res.Busted,
		NextPlayer: res.NextPlayer,
		Finished:   res.Finished,
	})
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	var req closeRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	// Forcing a stalled game to its end is a creator-only action.
	if req.CallerID != gm.CreatorID() {
		writeServiceError(w, game.ErrNotGameCreator)
		return
	}

	res, err := gm.Finish(time.Time{})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.publish(r, gm, true)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGameResults(w http.ResponseWriter, r *http.Request) {
	gm, ok := h.lookupGame(w, r)
	if !ok {
		return
	}
	res, err := gm.Results()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- invitation handlers ----

func (h *Handler) handleInviteCreate(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	inv, err := h.invites.Create(r.Context(), invite.CreateInput{
		GameID:  req.GameID,
		Inviter: req.Inviter,
		Invitee: req.Invitee,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.metrics.InvitationsCreated.Inc()
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) handleInviteAccept(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	inv, pos, err := h.invites.Accept(r.Context(), invite.DecisionInput{
		ID:    r.PathValue("id"),
		Email: req.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if gm, err := h.games.Get(r.Context(), inv.GameID); err == nil {
		h.publish(r, gm, false)
	}
	writeJSON(w, http.StatusOK, acceptResponse{Invitation: inv, Position: pos})
}

func (h *Handler) handleInviteDecline(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	inv, err := h.invites.Decline(r.Context(), invite.DecisionInput{
		ID:    r.PathValue("id"),
		Email: req.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) handleInviteList(w http.ResponseWriter, r *http.Request) {
	invs, err := h.invites.ListPending(r.Context(), r.URL.Query().Get("email"), time.Time{})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if invs == nil {
		invs = []invite.Invitation{}
	}
	writeJSON(w, http.StatusOK, invitationListResponse{Invitations: invs})
}

// ---- archive ----

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			return
		}
		limit = n
	}

	recs, err := h.archive.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Error("gameapi.archive.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": recs})
}
