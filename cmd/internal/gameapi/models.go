package gameapi

import (
	"time"

	"pontoon/cmd/internal/game"
	"pontoon/cmd/internal/invite"
)

type createGameRequest struct {
	CreatorID                string `json:"creator_id"`
	EnrollmentTimeoutSeconds int    `json:"enrollment_timeout_seconds,omitempty"`
	MaxPlayers               int    `json:"max_players,omitempty"`
	DealerHitsSoft17         bool   `json:"dealer_hits_soft_17,omitempty"`
}

type createGameResponse struct {
	GameID             string    `json:"game_id"`
	CreatorID          string    `json:"creator_id"`
	EnrollmentDeadline time.Time `json:"enrollment_deadline"`
}

type enrollRequest struct {
	Email string `json:"email"`
}

type enrollResponse struct {
	GameID   string `json:"game_id"`
	Email    string `json:"email"`
	Position int    `json:"position"`
}

type closeRequest struct {
	CallerID string `json:"caller_id"`
}

type closeResponse struct {
	GameID        string   `json:"game_id"`
	TurnOrder     []string `json:"turn_order"`
	CurrentPlayer string   `json:"current_player,omitempty"`
}

type playerRequest struct {
	Email string `json:"email"`
}

type drawResponse struct {
	Card       game.Card `json:"card"`
	Points     int       `json:"points"`
	Busted     bool      `json:"busted"`
	NextPlayer string    `json:"next_player,omitempty"`
	Finished   bool      `json:"finished"`
}

type aceRequest struct {
	Email    string `json:"email"`
	CardID   string `json:"card_id"`
	AsEleven bool   `json:"as_eleven"`
}

type aceResponse struct {
	Points   int  `json:"points"`
	Busted   bool `json:"busted"`
	Finished bool `json:"finished"`
}

type standResponse struct {
	Points     int    `json:"points"`
	Busted     bool   `json:"busted"`
	NextPlayer string `json:"next_player,omitempty"`
	Finished   bool   `json:"finished"`
}

type createInviteRequest struct {
	GameID  string `json:"game_id"`
	Inviter string `json:"inviter"`
	Invitee string `json:"invitee"`
}

type decisionRequest struct {
	Email string `json:"email"`
}

type acceptResponse struct {
	Invitation invite.Invitation `json:"invitation"`
	Position   int               `json:"position"`
}

type invitationListResponse struct {
	Invitations []invite.Invitation `json:"invitations"`
}
