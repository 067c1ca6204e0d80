package gameapi

import (
	"errors"
	"net/http"

	"pontoon/cmd/internal/game"
	"pontoon/cmd/internal/invite"
)

// errorStatus maps service-layer sentinel errors to an HTTP status and a
// stable machine-readable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound, "game_not_found"
	case errors.Is(err, invite.ErrNotFound):
		return http.StatusNotFound, "invitation_not_found"

	case errors.Is(err, game.ErrInvalidInput), errors.Is(err, invite.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"

	case errors.Is(err, game.ErrNotGameCreator),
		errors.Is(err, game.ErrNotPlayerTurn),
		errors.Is(err, game.ErrPlayerNotEnrolled),
		errors.Is(err, invite.ErrNotInvitee):
		return http.StatusForbidden, "forbidden"

	case errors.Is(err, game.ErrDuplicateEnrollment):
		return http.StatusConflict, "already_enrolled"
	case errors.Is(err, game.ErrGameFull):
		return http.StatusConflict, "game_full"
	case errors.Is(err, game.ErrEnrollmentClosed):
		return http.StatusConflict, "enrollment_closed"
	case errors.Is(err, game.ErrEnrollmentOpen):
		return http.StatusConflict, "enrollment_open"
	case errors.Is(err, game.ErrPlayerNotActive):
		return http.StatusConflict, "player_not_active"
	case errors.Is(err, game.ErrGameFinished):
		return http.StatusConflict, "game_finished"
	case errors.Is(err, game.ErrGameNotFinished):
		return http.StatusConflict, "game_not_finished"
	case errors.Is(err, game.ErrDeckEmpty):
		return http.StatusConflict, "deck_empty"
	case errors.Is(err, invite.ErrExpired):
		return http.StatusConflict, "invitation_expired"
	}
	return http.StatusInternalServerError, "server_error"
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}
