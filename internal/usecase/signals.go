package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
)

const maxChatLength = 500

// OfferDraw - relays a draw offer to the room.
func (that *GameManager) OfferDraw(ctx context.Context, roomID, playerID string) error {
	if err := that.checkMember(ctx, roomID, playerID); err != nil {
		return err
	}

	that.publish(ctx, that.logger.With("method", "OfferDraw", "room", roomID), events.Event{
		Kind:     events.KindDrawOffer,
		RoomID:   roomID,
		PlayerID: playerID,
	})

	return nil
}

// RespondDraw - relays the answer; an accepted offer ends the game in a draw.
func (that *GameManager) RespondDraw(ctx context.Context, roomID, playerID string, accept bool) error {
	if err := that.checkMember(ctx, roomID, playerID); err != nil {
		return err
	}

	that.publish(ctx, that.logger.With("method", "RespondDraw", "room", roomID), events.Event{
		Kind:     events.KindDrawResponse,
		RoomID:   roomID,
		PlayerID: playerID,
		Accept:   &accept,
	})

	if !accept {
		return nil
	}

	if _, err := that.HandleDrawAccepted(ctx, roomID); err != nil {
		return fmt.Errorf("failed accept draw: %w", err)
	}

	return nil
}

func (that *GameManager) RequestNewGame(ctx context.Context, roomID, playerID string) error {
	if err := that.checkMember(ctx, roomID, playerID); err != nil {
		return err
	}

	that.publish(ctx, that.logger.With("method", "RequestNewGame", "room", roomID), events.Event{
		Kind:     events.KindNewGameRequest,
		RoomID:   roomID,
		PlayerID: playerID,
	})

	return nil
}

// RespondNewGame - relays the answer; an accepted request replaces the game.
func (that *GameManager) RespondNewGame(ctx context.Context, roomID, playerID string, accept bool) error {
	if err := that.checkMember(ctx, roomID, playerID); err != nil {
		return err
	}

	that.publish(ctx, that.logger.With("method", "RespondNewGame", "room", roomID), events.Event{
		Kind:     events.KindNewGameResponse,
		RoomID:   roomID,
		PlayerID: playerID,
		Accept:   &accept,
	})

	if !accept {
		return nil
	}

	if _, err := that.StartNewGame(ctx, roomID); err != nil {
		return fmt.Errorf("failed start new game: %w", err)
	}

	return nil
}

func (that *GameManager) Chat(ctx context.Context, roomID, playerID, text string) error {
	if err := that.checkMember(ctx, roomID, playerID); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if runes := []rune(text); len(runes) > maxChatLength {
		text = string(runes[:maxChatLength])
	}

	that.publish(ctx, that.logger.With("method", "Chat", "room", roomID), events.Event{
		Kind:     events.KindChat,
		RoomID:   roomID,
		PlayerID: playerID,
		Text:     text,
	})

	return nil
}

func (that *GameManager) checkMember(ctx context.Context, roomID, playerID string) error {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed get room by id: %w", err)
	}

	if _, err = room.SideOf(playerID); err != nil {
		return err
	}

	return nil
}
