package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/toguzkorgool"
)

const defaultHistoryPageSize = 20

type roomRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
}

type gameRepo interface {
	Put(ctx context.Context, session *entity.Session) error
	GetByRoomID(ctx context.Context, roomID string) (*entity.Session, error)
}

type clockService interface {
	Start(session *entity.Session, state *entity.GameState) error
	Switch(session *entity.Session, state *entity.GameState) error
	Cancel(roomID string)
}

// GameManager - runs games: every mutation happens under the session lock and
// emits its event before the lock is released.
type GameManager struct {
	logger *slog.Logger

	roomRepo  roomRepo
	gameRepo  gameRepo
	clock     clockService
	publisher events.Publisher

	historyPageSize int
}

func NewGameManager(
	logger *slog.Logger,
	roomRepo roomRepo,
	gameRepo gameRepo,
	clock clockService,
	publisher events.Publisher,
	historyPageSize int,
) *GameManager {
	if historyPageSize <= 0 {
		historyPageSize = defaultHistoryPageSize
	}

	return &GameManager{
		logger: logger.With("component", "game-manager"),

		roomRepo:  roomRepo,
		gameRepo:  gameRepo,
		clock:     clock,
		publisher: publisher,

		historyPageSize: historyPageSize,
	}
}

// StartGame - returns the running game of the room, or starts a fresh one when there is none or it is over.
func (that *GameManager) StartGame(ctx context.Context, roomID string) (entity.GameSnapshot, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed get room by id: %w", err)
	}

	var snapshot entity.GameSnapshot
	err = room.WithLock(func() error {
		existing, getErr := that.gameRepo.GetByRoomID(ctx, roomID)
		switch {
		case getErr == nil:
			if current := existing.Snapshot(); !current.GameOver {
				snapshot = current
				return nil
			}
		case !errors.Is(getErr, apperror.ErrGameNotStarted):
			return fmt.Errorf("failed get game by room id: %w", getErr)
		}

		snapshot, getErr = that.launch(ctx, room)

		return getErr
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return snapshot, nil
}

// StartNewGame - always replaces the game of the room with a fresh one.
func (that *GameManager) StartNewGame(ctx context.Context, roomID string) (entity.GameSnapshot, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed get room by id: %w", err)
	}

	var snapshot entity.GameSnapshot
	err = room.WithLock(func() error {
		var restartErr error
		snapshot, restartErr = that.restart(ctx, room)

		return restartErr
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return snapshot, nil
}

// RestartGame - StartNewGame on behalf of a player, who must hold a seat in the room.
func (that *GameManager) RestartGame(ctx context.Context, roomID, playerID string) (entity.GameSnapshot, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed get room by id: %w", err)
	}

	var snapshot entity.GameSnapshot
	err = room.WithLock(func() error {
		if _, sideErr := room.SideOf(playerID); sideErr != nil {
			return sideErr
		}

		var restartErr error
		snapshot, restartErr = that.restart(ctx, room)

		return restartErr
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return snapshot, nil
}

// restart - caller holds the room lock.
func (that *GameManager) restart(ctx context.Context, room *entity.Room) (entity.GameSnapshot, error) {
	that.clock.Cancel(room.ID)

	return that.launch(ctx, room)
}

// launch - caller holds the room lock.
func (that *GameManager) launch(ctx context.Context, room *entity.Room) (entity.GameSnapshot, error) {
	log := that.logger.With("method", "launch", "room", room.ID)

	session := entity.NewSession(entity.NewGameState(room.ID, room.TimerSetting, room.UndoEnabled))

	var snapshot entity.GameSnapshot
	err := session.Update(func(state *entity.GameState) error {
		// nothing is stored until the clock runs
		if err := that.clock.Start(session, state); err != nil {
			return fmt.Errorf("failed start clock: %w", err)
		}

		if err := that.gameRepo.Put(ctx, session); err != nil {
			that.clock.Cancel(room.ID)
			return fmt.Errorf("failed store game: %w", err)
		}

		room.SetStatus(entity.RoomPlaying)

		snapshot = state.Snapshot()
		that.publish(ctx, log, events.Event{Kind: events.KindGameStarted, RoomID: room.ID, State: &snapshot})

		return nil
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	log.Info("game started", "timer", room.TimerSetting)

	return snapshot, nil
}

func (that *GameManager) MakeMove(ctx context.Context, roomID, playerID string, hole int) (entity.GameSnapshot, error) {
	log := that.logger.With("method", "MakeMove", "room", roomID)

	room, session, err := that.lookup(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	var snapshot entity.GameSnapshot
	err = session.Update(func(state *entity.GameState) error {
		if state.GameOver {
			return toguzkorgool.ErrGameOver
		}

		side, sideErr := room.SideOf(playerID)
		if sideErr != nil {
			return sideErr
		}

		if state.CurrentPlayer != side {
			return apperror.ErrNotPlayerTurn
		}

		moveNumber := state.MoveNumber

		description, moveErr := toguzkorgool.MakeMove(state, side, hole)
		if moveErr != nil {
			return fmt.Errorf("failed make move: %w", moveErr)
		}

		state.MoveHistory = append(state.MoveHistory, entity.MoveRecord{
			MoveNumber:  moveNumber,
			Side:        side,
			Hole:        hole,
			Description: description,
		})

		if state.GameOver {
			that.clock.Cancel(roomID)
			room.SetStatus(entity.RoomFinished)
		} else if switchErr := that.clock.Switch(session, state); switchErr != nil {
			log.Error("failed to switch clock", "error", switchErr)
		}

		snapshot = state.Snapshot()

		event := events.Event{Kind: events.KindMove, RoomID: roomID, State: &snapshot}
		if state.GameOver {
			event.Kind = events.KindGameOver
			event.Reason = events.GameOverReason(state)
		}
		that.publish(ctx, log, event)

		return nil
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return snapshot, nil
}

// Resign - the opponent wins. Resigning a finished game changes nothing.
func (that *GameManager) Resign(ctx context.Context, roomID, playerID string) (entity.GameSnapshot, error) {
	log := that.logger.With("method", "Resign", "room", roomID)

	room, session, err := that.lookup(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	var snapshot entity.GameSnapshot
	err = session.Update(func(state *entity.GameState) error {
		if state.GameOver {
			snapshot = state.Snapshot()
			return nil
		}

		side, sideErr := room.SideOf(playerID)
		if sideErr != nil {
			return sideErr
		}

		state.Finish(entity.WinnerOf(side.Opponent()), entity.ReasonResignation)
		that.clock.Cancel(roomID)
		room.SetStatus(entity.RoomFinished)

		snapshot = state.Snapshot()
		that.publish(ctx, log, events.Event{
			Kind:     events.KindGameOver,
			RoomID:   roomID,
			State:    &snapshot,
			Reason:   events.ReasonResignation,
			PlayerID: playerID,
		})

		return nil
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return snapshot, nil
}

// HandleDrawAccepted - ends the game in a draw. A finished game is left as is.
func (that *GameManager) HandleDrawAccepted(ctx context.Context, roomID string) (entity.GameSnapshot, error) {
	log := that.logger.With("method", "HandleDrawAccepted", "room", roomID)

	room, session, err := that.lookup(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	var snapshot entity.GameSnapshot
	err = session.Update(func(state *entity.GameState) error {
		if state.GameOver {
			snapshot = state.Snapshot()
			return nil
		}

		state.Finish(entity.WinnerDraw, entity.ReasonNone)
		that.clock.Cancel(roomID)
		room.SetStatus(entity.RoomFinished)

		snapshot = state.Snapshot()
		that.publish(ctx, log, events.Event{
			Kind:   events.KindGameOver,
			RoomID: roomID,
			State:  &snapshot,
			Reason: events.ReasonDraw,
		})

		return nil
	})
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return snapshot, nil
}

func (that *GameManager) GetState(ctx context.Context, roomID string) (entity.GameSnapshot, error) {
	session, err := that.gameRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return session.Snapshot(), nil
}

// GetMoveHistory - zero-based page of the move history. Pages outside the history are empty.
func (that *GameManager) GetMoveHistory(ctx context.Context, roomID string, page int) (entity.HistoryPage, error) {
	session, err := that.gameRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return entity.HistoryPage{}, err
	}

	var history entity.HistoryPage
	err = session.Update(func(state *entity.GameState) error {
		total := len(state.MoveHistory)

		history = entity.HistoryPage{
			Moves:      []entity.MoveRecord{},
			Page:       page,
			TotalPages: max(1, (total+that.historyPageSize-1)/that.historyPageSize),
		}

		// compare pages before multiplying, a huge page would overflow the offset
		if page < 0 || page >= history.TotalPages {
			return nil
		}

		start := page * that.historyPageSize
		end := min(start+that.historyPageSize, total)
		history.Moves = append(history.Moves, state.MoveHistory[start:end]...)

		return nil
	})
	if err != nil {
		return entity.HistoryPage{}, err
	}

	return history, nil
}

func (that *GameManager) lookup(ctx context.Context, roomID string) (*entity.Room, *entity.Session, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed get room by id: %w", err)
	}

	session, err := that.gameRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed get game by room id: %w", err)
	}

	return room, session, nil
}

// publish - must stay non-blocking, it runs under the session lock.
func (that *GameManager) publish(ctx context.Context, log *slog.Logger, event events.Event) {
	if err := that.publisher.Publish(ctx, event.RoomID, event); err != nil {
		log.Warn("failed to publish game event", "kind", event.Kind, "error", err)
	}
}
