package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

var errBrokerDown = errors.New("broker down")

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, roomID string, event Event) error {
	return m.Called(ctx, roomID, event).Error(0)
}

func (m *mockPublisher) PublishToPlayer(ctx context.Context, playerID string, event Event) error {
	return m.Called(ctx, playerID, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

// recorder - collects delivered events; an optional gate holds the first delivery.
type recorder struct {
	mu      sync.Mutex
	events  []Event
	started chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (r *recorder) Publish(_ context.Context, _ string, event Event) error {
	if r.gate != nil {
		r.once.Do(func() {
			close(r.started)
			<-r.gate
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)

	return nil
}

func (r *recorder) PublishToPlayer(ctx context.Context, _ string, event Event) error {
	return r.Publish(ctx, "", event)
}

func (r *recorder) Close() error {
	return nil
}

func (r *recorder) kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNoopPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)

	pub := &NoopPublisher{}
	require.NoError(t, pub.Publish(context.Background(), "room", Event{Kind: KindMove}))
	require.NoError(t, pub.PublishToPlayer(context.Background(), "player", Event{Kind: KindError}))
	require.NoError(t, pub.Close())
}

func TestMultiPublisher(t *testing.T) {
	t.Run("Delivers to every publisher and joins errors", func(t *testing.T) {
		ctx := context.Background()
		event := Event{Kind: KindChat, RoomID: "r1", Text: "hi"}

		// Given: two publishers, one of them failing
		healthy := &mockPublisher{}
		healthy.On("Publish", mock.Anything, "r1", event).Return(nil).Once()
		failing := &mockPublisher{}
		failing.On("Publish", mock.Anything, "r1", event).Return(errBrokerDown).Once()

		multi := NewMultiPublisher(healthy, failing)

		// When: an event is published
		err := multi.Publish(ctx, "r1", event)

		// Then: both were called and the failure is reported
		require.ErrorIs(t, err, errBrokerDown)
		healthy.AssertExpectations(t)
		failing.AssertExpectations(t)
	})

	t.Run("Player events and close", func(t *testing.T) {
		event := Event{Kind: KindError, Message: "nope"}

		first := &mockPublisher{}
		first.On("PublishToPlayer", mock.Anything, "p1", event).Return(nil).Once()
		first.On("Close").Return(nil).Once()

		multi := NewMultiPublisher(first)

		require.NoError(t, multi.PublishToPlayer(context.Background(), "p1", event))
		require.NoError(t, multi.Close())
		first.AssertExpectations(t)
	})
}

func TestAsyncPublisher(t *testing.T) {
	t.Run("Preserves order", func(t *testing.T) {
		// Given: an async publisher in front of a recorder
		rec := &recorder{}
		async := NewAsyncPublisher(discardLogger(), rec, 16)

		// When: several events are published
		order := []Kind{KindGameStarted, KindMove, KindTimerUpdate, KindMove, KindGameOver}
		for _, kind := range order {
			require.NoError(t, async.Publish(context.Background(), "r1", Event{Kind: kind, RoomID: "r1"}))
		}

		// Then: close flushes them in the same order
		require.NoError(t, async.Close())
		assert.Equal(t, order, rec.kinds())
	})

	t.Run("Drops instead of blocking when full", func(t *testing.T) {
		// Given: a queue of one and a consumer stuck on the first event
		rec := &recorder{started: make(chan struct{}), gate: make(chan struct{})}
		async := NewAsyncPublisher(discardLogger(), rec, 1)

		require.NoError(t, async.Publish(context.Background(), "r1", Event{Kind: KindGameStarted}))
		<-rec.started
		require.NoError(t, async.Publish(context.Background(), "r1", Event{Kind: KindMove}))

		// When: another event arrives while the queue is full
		done := make(chan error, 1)
		go func() {
			done <- async.Publish(context.Background(), "r1", Event{Kind: KindTimerUpdate})
		}()

		// Then: it returns immediately with ErrQueueFull
		select {
		case err := <-done:
			require.ErrorIs(t, err, ErrQueueFull)
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a full queue")
		}

		close(rec.gate)
		require.NoError(t, async.Close())
		assert.Equal(t, []Kind{KindGameStarted, KindMove}, rec.kinds())
	})

	t.Run("Rejects events after close", func(t *testing.T) {
		next := &mockPublisher{}
		next.On("Close").Return(nil).Once()
		async := NewAsyncPublisher(discardLogger(), next, 4)

		require.NoError(t, async.Close())
		require.NoError(t, async.Close())

		err := async.PublishToPlayer(context.Background(), "p1", Event{Kind: KindError})
		require.ErrorIs(t, err, ErrPublisherClosed)
		next.AssertExpectations(t)
	})

	t.Run("Player events go to the player route", func(t *testing.T) {
		event := Event{Kind: KindError, Message: "not your turn"}

		next := &mockPublisher{}
		next.On("PublishToPlayer", mock.Anything, "p1", event).Return(nil).Once()
		next.On("Close").Return(nil).Once()
		async := NewAsyncPublisher(discardLogger(), next, 4)

		require.NoError(t, async.PublishToPlayer(context.Background(), "p1", event))
		require.NoError(t, async.Close())
		next.AssertExpectations(t)
	})
}

func TestGameOverReason(t *testing.T) {
	state := entity.NewGameState("r1", 0, false)
	assert.Equal(t, ReasonNormal, GameOverReason(state))

	state.Finish(entity.WinnerWhite, entity.ReasonTimeout)
	assert.Equal(t, ReasonTimeout, GameOverReason(state))

	state.GameOverReason = entity.ReasonResignation
	assert.Equal(t, ReasonResignation, GameOverReason(state))
}
