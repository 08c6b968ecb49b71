package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
)

const (
	testRoom  = "ABC234"
	testWhite = "p1"
	testBlack = "p2"
	waitFor   = time.Second
	pollAt    = 5 * time.Millisecond
)

type mockGames struct {
	mock.Mock
}

func (m *mockGames) MakeMove(ctx context.Context, roomID, playerID string, hole int) (entity.GameSnapshot, error) {
	args := m.Called(ctx, roomID, playerID, hole)
	return args.Get(0).(entity.GameSnapshot), args.Error(1)
}

func (m *mockGames) Resign(ctx context.Context, roomID, playerID string) (entity.GameSnapshot, error) {
	args := m.Called(ctx, roomID, playerID)
	return args.Get(0).(entity.GameSnapshot), args.Error(1)
}

func (m *mockGames) OfferDraw(ctx context.Context, roomID, playerID string) error {
	return m.Called(ctx, roomID, playerID).Error(0)
}

func (m *mockGames) RespondDraw(ctx context.Context, roomID, playerID string, accept bool) error {
	return m.Called(ctx, roomID, playerID, accept).Error(0)
}

func (m *mockGames) RequestNewGame(ctx context.Context, roomID, playerID string) error {
	return m.Called(ctx, roomID, playerID).Error(0)
}

func (m *mockGames) RespondNewGame(ctx context.Context, roomID, playerID string, accept bool) error {
	return m.Called(ctx, roomID, playerID, accept).Error(0)
}

func (m *mockGames) Chat(ctx context.Context, roomID, playerID, text string) error {
	return m.Called(ctx, roomID, playerID, text).Error(0)
}

type stubRooms struct{}

func (stubRooms) GetRoom(_ context.Context, roomID string) (entity.RoomView, error) {
	if roomID != testRoom {
		return entity.RoomView{}, apperror.ErrRoomNotFound
	}

	return entity.RoomView{
		RoomID:  testRoom,
		Player1: &entity.PlayerView{ID: testWhite, Name: "Aigerim", Host: true},
		Player2: &entity.PlayerView{ID: testBlack, Name: "Bolot"},
	}, nil
}

type wsFixture struct {
	hub   *Hub
	games *mockGames
	url   string
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	f := &wsFixture{
		hub:   NewHub(logger),
		games: &mockGames{},
	}

	ts := httptest.NewServer(New(logger, f.hub, f.games, stubRooms{}).Handler())
	t.Cleanup(func() {
		_ = f.hub.Close()
		ts.Close()
	})

	f.url = "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	return f
}

func (f *wsFixture) dial(t *testing.T, playerID string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(f.url+"?roomId="+testRoom+"&playerId="+playerID, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func (f *wsFixture) waitConnected(t *testing.T, count int) {
	t.Helper()

	require.Eventually(t, func() bool { return f.hub.Connected(testRoom) == count }, waitFor, pollAt)
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))

	var event events.Event
	require.NoError(t, conn.ReadJSON(&event))

	return event
}

func TestServer_Connect(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "Unknown room", query: "?roomId=nope&playerId=p1", wantStatus: http.StatusNotFound},
		{name: "Stranger", query: "?roomId=" + testRoom + "&playerId=stranger", wantStatus: http.StatusForbidden},
		{name: "No player", query: "?roomId=" + testRoom, wantStatus: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWSFixture(t)

			conn, resp, err := websocket.DefaultDialer.Dial(f.url+tc.query, nil)

			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			assert.Nil(t, conn)
			require.NotNil(t, resp)
			_ = resp.Body.Close()
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestServer_RoomEvents(t *testing.T) {
	// Given: both players are connected
	f := newWSFixture(t)
	white := f.dial(t, testWhite)
	black := f.dial(t, testBlack)
	f.waitConnected(t, 2)

	// When: a room event is published
	snapshot := entity.GameSnapshot{RoomID: testRoom, MoveNumber: 2}
	require.NoError(t, f.hub.Publish(context.Background(), testRoom, events.Event{
		Kind:   events.KindMove,
		RoomID: testRoom,
		State:  &snapshot,
	}))

	// Then: both sockets receive it
	for _, conn := range []*websocket.Conn{white, black} {
		event := readEvent(t, conn)
		assert.Equal(t, events.KindMove, event.Kind)
		require.NotNil(t, event.State)
		assert.Equal(t, 2, event.State.MoveNumber)
	}
}

func TestServer_Actions(t *testing.T) {
	t.Run("Move is forwarded with the socket identity", func(t *testing.T) {
		// Given: White is connected
		f := newWSFixture(t)
		called := make(chan struct{})
		f.games.On("MakeMove", mock.Anything, testRoom, testWhite, 4).
			Return(entity.GameSnapshot{}, nil).
			Run(func(mock.Arguments) { close(called) })
		white := f.dial(t, testWhite)

		// When: White sends a move
		require.NoError(t, white.WriteJSON(map[string]any{
			"action":  "game:move",
			"payload": map[string]any{"holeIndex": 4},
		}))

		// Then: the game service receives it
		select {
		case <-called:
		case <-time.After(waitFor):
			t.Fatal("move was not forwarded")
		}
	})

	t.Run("Errors go back to the caller only", func(t *testing.T) {
		// Given: both players are connected and Black moves out of turn
		f := newWSFixture(t)
		f.games.On("MakeMove", mock.Anything, testRoom, testBlack, 10).
			Return(entity.GameSnapshot{}, apperror.ErrNotPlayerTurn)
		white := f.dial(t, testWhite)
		black := f.dial(t, testBlack)
		f.waitConnected(t, 2)

		// When: Black sends the move
		require.NoError(t, black.WriteJSON(map[string]any{
			"action":  "game:move",
			"payload": map[string]any{"holeIndex": 10},
		}))

		// Then: Black gets an ERROR event and White gets nothing
		event := readEvent(t, black)
		assert.Equal(t, events.KindError, event.Kind)
		assert.Equal(t, apperror.ErrNotPlayerTurn.Error(), event.Message)

		require.NoError(t, white.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
		_, _, err := white.ReadMessage()
		require.Error(t, err)
	})

	t.Run("Unknown action", func(t *testing.T) {
		f := newWSFixture(t)
		white := f.dial(t, testWhite)

		require.NoError(t, white.WriteJSON(map[string]any{"action": "game:undo"}))

		event := readEvent(t, white)
		assert.Equal(t, events.KindError, event.Kind)
		assert.Contains(t, event.Message, "game:undo")
	})

	t.Run("Draw response needs an answer", func(t *testing.T) {
		f := newWSFixture(t)
		white := f.dial(t, testWhite)

		require.NoError(t, white.WriteJSON(map[string]any{"action": "game:draw:response", "payload": map[string]any{}}))

		event := readEvent(t, white)
		assert.Equal(t, events.KindError, event.Kind)
		f.games.AssertNotCalled(t, "RespondDraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Chat", func(t *testing.T) {
		f := newWSFixture(t)
		called := make(chan struct{})
		f.games.On("Chat", mock.Anything, testRoom, testBlack, "salam").
			Return(nil).
			Run(func(mock.Arguments) { close(called) })
		black := f.dial(t, testBlack)

		payload, err := json.Marshal(chatPayload{Text: "salam"})
		require.NoError(t, err)
		require.NoError(t, black.WriteJSON(Message{Action: "game:chat", Payload: payload}))

		select {
		case <-called:
		case <-time.After(waitFor):
			t.Fatal("chat was not forwarded")
		}
	})
}

func TestHub_Close(t *testing.T) {
	// Given: a connected player
	f := newWSFixture(t)
	white := f.dial(t, testWhite)
	f.waitConnected(t, 1)

	// When: the hub is closed
	require.NoError(t, f.hub.Close())

	// Then: the socket is closed and publishing is harmless
	require.NoError(t, white.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := white.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 0, f.hub.Connected(testRoom))
	require.NoError(t, f.hub.Publish(context.Background(), testRoom, events.Event{Kind: events.KindChat}))
}
