// Package timer runs the per-room chess clocks.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
)

type scheduler interface {
	Every(period time.Duration, fn func()) (*Handle, error)
}

type roomRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
}

type roomTimer struct {
	handle *Handle
	gen    uint64
}

// Service keeps at most one running clock per room.
//
// Start and Switch are called with the session lock held and receive the locked state.
// A tick takes the session lock itself, so lock order is always session, then the timer table.
type Service struct {
	logger    *slog.Logger
	clock     clock.Clock
	scheduler scheduler
	rooms     roomRepo
	publisher events.Publisher
	interval  time.Duration

	mu     sync.Mutex
	timers map[string]roomTimer
	gen    uint64
}

func NewService(
	logger *slog.Logger,
	clk clock.Clock,
	scheduler scheduler,
	rooms roomRepo,
	publisher events.Publisher,
	interval time.Duration,
) *Service {
	return &Service{
		logger:    logger.With("component", "timer"),
		clock:     clk,
		scheduler: scheduler,
		rooms:     rooms,
		publisher: publisher,
		interval:  interval,
		timers:    make(map[string]roomTimer),
	}
}

// Start - stamps the turn boundary and starts ticking for the side to move.
func (that *Service) Start(session *entity.Session, state *entity.GameState) error {
	if !state.TimerEnabled || state.GameOver {
		return nil
	}

	state.LastMoveTimestamp = that.clock.Now()

	return that.schedule(session)
}

// Switch - charges the side that just moved and restarts ticking for the other one.
// state.CurrentPlayer must already point to the side now on move.
func (that *Service) Switch(session *entity.Session, state *entity.GameState) error {
	if !state.TimerEnabled {
		return nil
	}

	now := that.clock.Now()
	mover := state.CurrentPlayer.Opponent()
	elapsed := now.Sub(state.LastMoveTimestamp).Seconds()

	state.SetTimeRemaining(mover, max(0, state.TimeRemaining(mover)-elapsed))
	state.LastMoveTimestamp = now

	return that.schedule(session)
}

// Cancel - stops the clock of the room; a no-op when none is running.
func (that *Service) Cancel(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.timers[roomID]; ok {
		current.handle.Cancel()
		delete(that.timers, roomID)
	}
}

// CancelAll - stops every clock.
func (that *Service) CancelAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for roomID, current := range that.timers {
		current.handle.Cancel()
		delete(that.timers, roomID)
	}
}

func (that *Service) Running(roomID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.timers[roomID]

	return ok
}

func (that *Service) schedule(session *entity.Session) error {
	roomID := session.RoomID()

	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.timers[roomID]; ok {
		current.handle.Cancel()
		delete(that.timers, roomID)
	}

	that.gen++
	gen := that.gen

	handle, err := that.scheduler.Every(that.interval, func() {
		that.tick(session, gen)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule clock for room %s: %w", roomID, err)
	}

	that.timers[roomID] = roomTimer{handle: handle, gen: gen}

	return nil
}

func (that *Service) isCurrent(roomID string, gen uint64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.timers[roomID]

	return ok && current.gen == gen
}

func (that *Service) tick(session *entity.Session, gen uint64) {
	roomID := session.RoomID()
	log := that.logger.With("method", "tick", "room", roomID)
	ctx := context.Background()

	_ = session.Update(func(state *entity.GameState) error {
		// a tick from a replaced or cancelled clock must not touch the state
		if !that.isCurrent(roomID, gen) || state.GameOver {
			return nil
		}

		side := state.CurrentPlayer
		elapsed := that.clock.Now().Sub(state.LastMoveTimestamp).Seconds()
		remaining := state.TimeRemaining(side) - elapsed

		if remaining <= 0 {
			state.SetTimeRemaining(side, 0)
			state.Finish(entity.WinnerOf(side.Opponent()), entity.ReasonTimeout)

			that.Cancel(roomID)
			that.finishRoom(ctx, roomID)

			snapshot := state.Snapshot()
			that.publish(ctx, log, events.Event{
				Kind:   events.KindGameOver,
				RoomID: roomID,
				State:  &snapshot,
				Reason: events.ReasonTimeout,
			})

			log.Info("clock flag fell", "side", side)

			return nil
		}

		timer := events.Timer{White: state.WhiteTimeRemaining, Black: state.BlackTimeRemaining}
		if side == entity.White {
			timer.White = remaining
		} else {
			timer.Black = remaining
		}

		that.publish(ctx, log, events.Event{
			Kind:   events.KindTimerUpdate,
			RoomID: roomID,
			Timer:  &timer,
		})

		return nil
	})
}

func (that *Service) finishRoom(ctx context.Context, roomID string) {
	room, err := that.rooms.GetByID(ctx, roomID)
	if err != nil {
		that.logger.Debug("room gone before its clock finished", "room", roomID, "error", err)
		return
	}

	room.SetStatus(entity.RoomFinished)
}

func (that *Service) publish(ctx context.Context, log *slog.Logger, event events.Event) {
	if err := that.publisher.Publish(ctx, event.RoomID, event); err != nil {
		log.Warn("failed to publish clock event", "kind", event.Kind, "error", err)
	}
}
