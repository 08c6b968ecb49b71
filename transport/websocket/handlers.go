package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var errMissingField = errors.New("missing field")

type movePayload struct {
	HoleIndex *int `json:"holeIndex"`
}

type answerPayload struct {
	Accept *bool `json:"accept"`
}

type chatPayload struct {
	Text string `json:"text"`
}

func decode(message *Message, payload any) error {
	if len(message.Payload) == 0 {
		return fmt.Errorf("%w: payload", errMissingField)
	}

	if err := json.Unmarshal(message.Payload, payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}

// handleMove - the resulting MOVE or GAME_OVER event reaches the room through the hub.
func (that *Server) handleMove(ctx context.Context, client *Client, message *Message) error {
	var payload movePayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	if payload.HoleIndex == nil {
		return fmt.Errorf("%w: holeIndex", errMissingField)
	}

	_, err := that.games.MakeMove(ctx, client.roomID, client.playerID, *payload.HoleIndex)

	return err
}

func (that *Server) handleResign(ctx context.Context, client *Client, _ *Message) error {
	_, err := that.games.Resign(ctx, client.roomID, client.playerID)

	return err
}

func (that *Server) handleDrawOffer(ctx context.Context, client *Client, _ *Message) error {
	return that.games.OfferDraw(ctx, client.roomID, client.playerID)
}

func (that *Server) handleDrawResponse(ctx context.Context, client *Client, message *Message) error {
	var payload answerPayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	if payload.Accept == nil {
		return fmt.Errorf("%w: accept", errMissingField)
	}

	return that.games.RespondDraw(ctx, client.roomID, client.playerID, *payload.Accept)
}

func (that *Server) handleNewGame(ctx context.Context, client *Client, _ *Message) error {
	return that.games.RequestNewGame(ctx, client.roomID, client.playerID)
}

func (that *Server) handleNewGameResponse(ctx context.Context, client *Client, message *Message) error {
	var payload answerPayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	if payload.Accept == nil {
		return fmt.Errorf("%w: accept", errMissingField)
	}

	return that.games.RespondNewGame(ctx, client.roomID, client.playerID, *payload.Accept)
}

func (that *Server) handleChat(ctx context.Context, client *Client, message *Message) error {
	var payload chatPayload
	if err := decode(message, &payload); err != nil {
		return err
	}

	return that.games.Chat(ctx, client.roomID, client.playerID, payload.Text)
}

// handleReady - acknowledged only, games are started over REST.
func (that *Server) handleReady(_ context.Context, client *Client, _ *Message) error {
	that.logger.Debug("player ready", "room", client.roomID, "player", client.playerID)

	return nil
}
