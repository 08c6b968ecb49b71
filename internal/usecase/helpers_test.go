package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/repository"
)

type mockClock struct {
	mock.Mock
}

func (m *mockClock) Start(session *entity.Session, state *entity.GameState) error {
	return m.Called(session, state).Error(0)
}

func (m *mockClock) Switch(session *entity.Session, state *entity.GameState) error {
	return m.Called(session, state).Error(0)
}

func (m *mockClock) Cancel(roomID string) {
	m.Called(roomID)
}

func newMockClock() *mockClock {
	clock := &mockClock{}
	clock.On("Start", mock.Anything, mock.Anything).Return(nil).Maybe()
	clock.On("Switch", mock.Anything, mock.Anything).Return(nil).Maybe()
	clock.On("Cancel", mock.Anything).Return().Maybe()

	return clock
}

type recordingPublisher struct {
	events.NoopPublisher

	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return nil
}

func (r *recordingPublisher) ofKind(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []events.Event
	for _, e := range r.events {
		if e.Kind == kind {
			found = append(found, e)
		}
	}

	return found
}

func (r *recordingPublisher) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]events.Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}

type gameFixture struct {
	ctx       context.Context
	rooms     repository.RoomRepository
	games     repository.GameRepository
	clock     *mockClock
	publisher *recordingPublisher
	manager   *GameManager
	room      *entity.Room
}

const (
	roomID  = "room-1"
	whiteID = "white-player"
	blackID = "black-player"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newGameFixture - a full room with a host (White) and a guest (Black), game not started yet.
func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()

	f := &gameFixture{
		ctx:       context.Background(),
		rooms:     repository.NewRoomRepository(),
		games:     repository.NewGameRepository(),
		clock:     newMockClock(),
		publisher: &recordingPublisher{},
	}

	f.room = entity.NewRoom(roomID, &entity.Player{ID: whiteID, Name: "Aigerim"}, 300, false)
	require.NoError(t, f.room.Join(&entity.Player{ID: blackID, Name: "Bolot"}))
	require.NoError(t, f.rooms.Create(f.ctx, f.room))

	f.manager = NewGameManager(discardLogger(), f.rooms, f.games, f.clock, f.publisher, 20)

	return f
}

func (f *gameFixture) start(t *testing.T) *entity.Session {
	t.Helper()

	_, err := f.manager.StartGame(f.ctx, roomID)
	require.NoError(t, err)

	session, err := f.games.GetByRoomID(f.ctx, roomID)
	require.NoError(t, err)

	return session
}
