package game

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrGameNotFound        = errors.New("game not found")
	ErrPlayerNotEnrolled   = errors.New("player not enrolled")
	ErrDuplicateEnrollment = errors.New("player already enrolled")
	ErrGameFull            = errors.New("game is full")
	ErrEnrollmentClosed    = errors.New("enrollment closed")
	ErrEnrollmentOpen      = errors.New("enrollment still open")
	ErrNotPlayerTurn       = errors.New("not player's turn")
	ErrPlayerNotActive     = errors.New("player not active")
	ErrDeckEmpty           = errors.New("deck empty")
	ErrGameFinished        = errors.New("game already finished")
	ErrGameNotFinished     = errors.New("game not finished")
	ErrNotGameCreator      = errors.New("caller is not the game creator")
)
