package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client - one socket of a player subscribed to a room.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	roomID   string
	playerID string
}

func newClient(conn *websocket.Conn, roomID, playerID string) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		roomID:   roomID,
		playerID: playerID,
	}
}

// readPump - runs on the upgrade goroutine and dispatches every message until the socket fails.
func (that *Server) readPump(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readPump", "room", client.roomID, "player", client.playerID)

	defer func() {
		that.hub.unregister(client)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("socket closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.sendError(client, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(client, "unknown action "+message.Action)
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			log.Info("action failed", "action", message.Action, "error", err)
			that.sendError(client, err.Error())
		}
	}
}

func (that *Server) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError - errors go to the caller only.
func (that *Server) sendError(client *Client, message string) {
	if err := that.hub.PublishToPlayer(context.Background(), client.playerID, events.Event{
		Kind:    events.KindError,
		RoomID:  client.roomID,
		Message: message,
	}); err != nil {
		that.logger.Error("failed to send error", "player", client.playerID, "error", err)
	}
}
