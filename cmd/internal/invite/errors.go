package invite

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("invitation not found")
	ErrExpired      = errors.New("invitation expired")
	ErrNotInvitee   = errors.New("caller is not the invitee")
)
