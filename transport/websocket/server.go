package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameService interface {
	MakeMove(ctx context.Context, roomID, playerID string, hole int) (entity.GameSnapshot, error)
	Resign(ctx context.Context, roomID, playerID string) (entity.GameSnapshot, error)
	OfferDraw(ctx context.Context, roomID, playerID string) error
	RespondDraw(ctx context.Context, roomID, playerID string, accept bool) error
	RequestNewGame(ctx context.Context, roomID, playerID string) error
	RespondNewGame(ctx context.Context, roomID, playerID string, accept bool) error
	Chat(ctx context.Context, roomID, playerID, text string) error
}

type roomService interface {
	GetRoom(ctx context.Context, roomID string) (entity.RoomView, error)
}

// Message - a client request over the socket.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Server struct {
	logger *slog.Logger
	hub    *Hub

	games gameService
	rooms roomService

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, client *Client, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, games gameService, rooms roomService) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		games:  games,
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.handlers["game:move"] = server.handleMove
	server.handlers["game:resign"] = server.handleResign
	server.handlers["game:draw:offer"] = server.handleDrawOffer
	server.handlers["game:draw:response"] = server.handleDrawResponse
	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:new:response"] = server.handleNewGameResponse
	server.handlers["game:chat"] = server.handleChat
	server.handlers["game:ready"] = server.handleReady

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - only members of an existing room may subscribe to it.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	roomID := req.URL.Query().Get("roomId")
	playerID := req.URL.Query().Get("playerId")

	if err := that.checkMember(req.Context(), roomID, playerID); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, apperror.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		http.Error(writer, err.Error(), status)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn, roomID, playerID)
	if !that.hub.register(client) {
		_ = conn.Close()
		return
	}

	log.Info("WebSocket connection established", "room", roomID, "player", playerID)

	go that.writePump(client)
	that.readPump(req.Context(), client)
}

func (that *Server) checkMember(ctx context.Context, roomID, playerID string) error {
	view, err := that.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	for _, player := range []*entity.PlayerView{view.Player1, view.Player2} {
		if player != nil && playerID != "" && player.ID == playerID {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
}
