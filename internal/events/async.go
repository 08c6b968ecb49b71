package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull       = errors.New("event queue is full")
	ErrPublisherClosed = errors.New("publisher is closed")
)

type envelope struct {
	roomID   string
	playerID string
	event    Event
}

// AsyncPublisher queues events and delivers them from a single goroutine in FIFO order.
// Publish never blocks: when the queue is full the event is dropped.
type AsyncPublisher struct {
	logger *slog.Logger
	next   Publisher

	mu     sync.RWMutex
	closed bool
	queue  chan envelope
	done   chan struct{}
}

func NewAsyncPublisher(logger *slog.Logger, next Publisher, size int) *AsyncPublisher {
	if size <= 0 {
		size = 1
	}

	publisher := &AsyncPublisher{
		logger: logger.With("component", "async-publisher"),
		next:   next,
		queue:  make(chan envelope, size),
		done:   make(chan struct{}),
	}

	go publisher.run()

	return publisher
}

func (that *AsyncPublisher) Publish(_ context.Context, roomID string, event Event) error {
	return that.enqueue(envelope{roomID: roomID, event: event})
}

func (that *AsyncPublisher) PublishToPlayer(_ context.Context, playerID string, event Event) error {
	return that.enqueue(envelope{playerID: playerID, event: event})
}

func (that *AsyncPublisher) enqueue(env envelope) error {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.closed {
		return ErrPublisherClosed
	}

	select {
	case that.queue <- env:
		return nil
	default:
		that.logger.Warn("event dropped", "kind", env.event.Kind, "room", env.event.RoomID)
		return ErrQueueFull
	}
}

func (that *AsyncPublisher) run() {
	defer close(that.done)

	ctx := context.Background()

	for env := range that.queue {
		var err error
		if env.playerID != "" {
			err = that.next.PublishToPlayer(ctx, env.playerID, env.event)
		} else {
			err = that.next.Publish(ctx, env.roomID, env.event)
		}

		if err != nil {
			that.logger.Error("failed to deliver event", "kind", env.event.Kind, "room", env.event.RoomID, "error", err)
		}
	}
}

// Close - delivers what is already queued, then closes the next publisher.
func (that *AsyncPublisher) Close() error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return nil
	}
	that.closed = true
	close(that.queue)
	that.mu.Unlock()

	<-that.done

	return that.next.Close()
}
