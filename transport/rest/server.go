package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type roomService interface {
	CreateRoom(ctx context.Context, playerName, roomID string, timerSetting int, undoEnabled bool) (entity.RoomView, error)
	JoinRoom(ctx context.Context, roomID, playerName string) (entity.RoomView, error)
	LeaveRoom(ctx context.Context, roomID, playerID string) error
	GetRoom(ctx context.Context, roomID string) (entity.RoomView, error)
}

type gameService interface {
	StartGame(ctx context.Context, roomID string) (entity.GameSnapshot, error)
	RestartGame(ctx context.Context, roomID, playerID string) (entity.GameSnapshot, error)
	MakeMove(ctx context.Context, roomID, playerID string, hole int) (entity.GameSnapshot, error)
	Resign(ctx context.Context, roomID, playerID string) (entity.GameSnapshot, error)
	GetState(ctx context.Context, roomID string) (entity.GameSnapshot, error)
	GetMoveHistory(ctx context.Context, roomID string, page int) (entity.HistoryPage, error)
}

type Server struct {
	logger *slog.Logger

	rooms roomService
	games gameService
}

func New(logger *slog.Logger, rooms roomService, games gameService) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		rooms:  rooms,
		games:  games,
	}
}

// Handler - routes of the HTTP API.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)

	mux.HandleFunc("POST /api/rooms/create", that.handleCreateRoom)
	mux.HandleFunc("POST /api/rooms/{roomId}/join", that.handleJoinRoom)
	mux.HandleFunc("POST /api/rooms/{roomId}/leave/{playerId}", that.handleLeaveRoom)
	mux.HandleFunc("GET /api/rooms/{roomId}", that.handleGetRoom)

	mux.HandleFunc("POST /api/games/{roomId}/start", that.handleStartGame)
	mux.HandleFunc("POST /api/games/{roomId}/new", that.handleNewGame)
	mux.HandleFunc("POST /api/games/{roomId}/move", that.handleMove)
	mux.HandleFunc("POST /api/games/{roomId}/resign", that.handleResign)
	mux.HandleFunc("GET /api/games/{roomId}/state", that.handleGetState)
	mux.HandleFunc("GET /api/games/{roomId}/history", that.handleGetHistory)

	return mux
}

// Start - serves the API until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
