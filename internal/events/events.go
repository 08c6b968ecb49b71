// Package events defines the room events pushed to players and the publishers that deliver them.
package events

import (
	"context"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

type Kind string

const (
	KindGameStarted     Kind = "GAME_STARTED"
	KindMove            Kind = "MOVE"
	KindGameOver        Kind = "GAME_OVER"
	KindTimerUpdate     Kind = "TIMER_UPDATE"
	KindDrawOffer       Kind = "DRAW_OFFER"
	KindDrawResponse    Kind = "DRAW_RESPONSE"
	KindNewGameRequest  Kind = "NEW_GAME_REQUEST"
	KindNewGameResponse Kind = "NEW_GAME_RESPONSE"
	KindChat            Kind = "CHAT"
	KindPlayerJoined    Kind = "PLAYER_JOINED"
	KindPlayerLeft      Kind = "PLAYER_LEFT"
	KindError           Kind = "ERROR"
)

// Game over reasons carried by GAME_OVER events.
const (
	ReasonNormal      = "normal"
	ReasonResignation = "resignation"
	ReasonTimeout     = "timeout"
	ReasonDraw        = "draw"
)

type Timer struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

type Event struct {
	Kind     Kind                 `json:"type"`
	RoomID   string               `json:"roomId"`
	State    *entity.GameSnapshot `json:"state,omitempty"`
	Timer    *Timer               `json:"timer,omitempty"`
	Room     *entity.RoomView     `json:"room,omitempty"`
	Reason   string               `json:"reason,omitempty"`
	PlayerID string               `json:"playerId,omitempty"`
	Accept   *bool                `json:"accept,omitempty"`
	Text     string               `json:"text,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// Publisher - delivers events to everyone in a room or to a single player.
type Publisher interface {
	Publish(ctx context.Context, roomID string, event Event) error
	PublishToPlayer(ctx context.Context, playerID string, event Event) error
	Close() error
}

func GameOverReason(state *entity.GameState) string {
	switch state.GameOverReason {
	case entity.ReasonResignation:
		return ReasonResignation
	case entity.ReasonTimeout:
		return ReasonTimeout
	default:
		return ReasonNormal
	}
}
