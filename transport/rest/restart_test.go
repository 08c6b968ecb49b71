package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/repository"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/usecase"
)

type idleClock struct{}

func (idleClock) Start(*entity.Session, *entity.GameState) error { return nil }
func (idleClock) Switch(*entity.Session, *entity.GameState) error { return nil }
func (idleClock) Cancel(string) {}

func TestServer_RestartGame(t *testing.T) {
	// Given: a running game with one move played, served by the real managers
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	roomRepo := repository.NewRoomRepository()
	gameRepo := repository.NewGameRepository()
	publisher := &events.NoopPublisher{}

	rooms := usecase.NewRoomManager(logger, roomRepo, gameRepo, idleClock{}, publisher)
	games := usecase.NewGameManager(logger, roomRepo, gameRepo, idleClock{}, publisher, 20)

	created, err := rooms.CreateRoom(ctx, "Aigerim", "ABC234", 0, false)
	require.NoError(t, err)
	joined, err := rooms.JoinRoom(ctx, "ABC234", "Bolot")
	require.NoError(t, err)
	_, err = games.StartGame(ctx, "ABC234")
	require.NoError(t, err)
	_, err = games.MakeMove(ctx, "ABC234", created.Player1.ID, 0)
	require.NoError(t, err)

	ts := httptest.NewServer(New(logger, rooms, games).Handler())
	t.Cleanup(ts.Close)

	stateOf := func(t *testing.T) entity.GameSnapshot {
		t.Helper()

		resp, body := do(t, http.MethodGet, ts.URL+"/api/games/ABC234/state", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var snapshot entity.GameSnapshot
		require.NoError(t, json.Unmarshal(body, &snapshot))

		return snapshot
	}

	t.Run("Outsider cannot restart", func(t *testing.T) {
		// When: someone without a seat asks for a new game
		resp, _ := do(t, http.MethodPost, ts.URL+"/api/games/ABC234/new?playerId=stranger", "")

		// Then: the request is refused and the running game is untouched
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, 2, stateOf(t).MoveNumber)
	})

	t.Run("Seated player restarts", func(t *testing.T) {
		// When: the guest asks for a new game
		resp, body := do(t, http.MethodPost, ts.URL+"/api/games/ABC234/new?playerId="+joined.Player2.ID, "")

		// Then: a fresh game replaces the old one
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var snapshot entity.GameSnapshot
		require.NoError(t, json.Unmarshal(body, &snapshot))
		assert.Equal(t, 1, snapshot.MoveNumber)
		assert.Empty(t, snapshot.MoveHistory)
		assert.Equal(t, 1, stateOf(t).MoveNumber)
	})
}
