package apperror

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomAlreadyExists   = errors.New("room already exists")
	ErrRoomFull            = errors.New("room is full")
	ErrInvalidRoomSettings = errors.New("invalid room settings")
	ErrPlayerNotFound      = errors.New("player not found in room")
	ErrGameNotStarted      = errors.New("game is not started")
	ErrNotPlayerTurn       = errors.New("it's not your turn")
	ErrInvalidMove         = errors.New("invalid move")
)
