package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
)

// Hub - delivers events to the sockets connected to this process.
// Fan-out never blocks: a client whose buffer is full misses the event.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	rooms   map[string]map[*Client]struct{}
	players map[string]map[*Client]struct{}
}

var _ events.Publisher = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "ws-hub"),
		rooms:   make(map[string]map[*Client]struct{}),
		players: make(map[string]map[*Client]struct{}),
	}
}

func (that *Hub) register(client *Client) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	add(that.rooms, client.roomID, client)
	add(that.players, client.playerID, client)

	return true
}

// unregister - closes the client's send channel exactly once.
func (that *Hub) unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[client.roomID][client]; !ok {
		return
	}

	remove(that.rooms, client.roomID, client)
	remove(that.players, client.playerID, client)
	close(client.send)
}

func (that *Hub) Publish(_ context.Context, roomID string, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	that.fanOut(that.rooms, roomID, data)

	return nil
}

func (that *Hub) PublishToPlayer(_ context.Context, playerID string, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	that.fanOut(that.players, playerID, data)

	return nil
}

// Connected - number of sockets subscribed to the room.
func (that *Hub) Connected(roomID string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms[roomID])
}

// Close - disconnects every client.
func (that *Hub) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil
	}
	that.closed = true

	for _, clients := range that.rooms {
		for client := range clients {
			close(client.send)
		}
	}

	that.rooms = make(map[string]map[*Client]struct{})
	that.players = make(map[string]map[*Client]struct{})

	return nil
}

func (that *Hub) fanOut(index map[string]map[*Client]struct{}, key string, data []byte) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for client := range index[key] {
		select {
		case client.send <- data:
		default:
			that.logger.Warn("client is too slow, event dropped", "room", client.roomID, "player", client.playerID)
		}
	}
}

func add(index map[string]map[*Client]struct{}, key string, client *Client) {
	clients, ok := index[key]
	if !ok {
		clients = make(map[*Client]struct{})
		index[key] = clients
	}

	clients[client] = struct{}{}
}

func remove(index map[string]map[*Client]struct{}, key string, client *Client) {
	delete(index[key], client)
	if len(index[key]) == 0 {
		delete(index, key)
	}
}
