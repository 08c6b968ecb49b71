package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/pkg"
)

const maxGeneratedRoomAttempts = 5

type roomStore interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

type gameRemover interface {
	DeleteByRoomID(ctx context.Context, roomID string) error
}

type roomClock interface {
	Cancel(roomID string)
}

type RoomManager struct {
	logger *slog.Logger

	roomRepo  roomStore
	gameRepo  gameRemover
	clock     roomClock
	publisher events.Publisher
}

func NewRoomManager(
	logger *slog.Logger,
	roomRepo roomStore,
	gameRepo gameRemover,
	clock roomClock,
	publisher events.Publisher,
) *RoomManager {
	return &RoomManager{
		logger: logger.With("component", "room-manager"),

		roomRepo:  roomRepo,
		gameRepo:  gameRepo,
		clock:     clock,
		publisher: publisher,
	}
}

// CreateRoom - the creator becomes the host. An empty roomID gets a generated code.
func (that *RoomManager) CreateRoom(
	ctx context.Context,
	playerName, roomID string,
	timerSetting int,
	undoEnabled bool,
) (entity.RoomView, error) {
	log := that.logger.With("method", "CreateRoom")

	if timerSetting < 0 {
		return entity.RoomView{}, fmt.Errorf("%w: negative timer %d", apperror.ErrInvalidRoomSettings, timerSetting)
	}

	host := &entity.Player{ID: pkg.GeneratePlayerID(), Name: playerName}

	if roomID != "" {
		room := entity.NewRoom(roomID, host, timerSetting, undoEnabled)
		if err := that.roomRepo.Create(ctx, room); err != nil {
			return entity.RoomView{}, err
		}

		log.Info("room created", "room", roomID)

		return room.View(), nil
	}

	// generated codes are short, so retry the rare collision
	for range maxGeneratedRoomAttempts {
		generated, err := pkg.GenerateRoomID()
		if err != nil {
			return entity.RoomView{}, err
		}

		room := entity.NewRoom(generated, host, timerSetting, undoEnabled)
		err = that.roomRepo.Create(ctx, room)
		if errors.Is(err, apperror.ErrRoomAlreadyExists) {
			continue
		}
		if err != nil {
			return entity.RoomView{}, err
		}

		log.Info("room created", "room", generated)

		return room.View(), nil
	}

	return entity.RoomView{}, fmt.Errorf("%w: could not generate a free room id", apperror.ErrRoomAlreadyExists)
}

func (that *RoomManager) JoinRoom(ctx context.Context, roomID, playerName string) (entity.RoomView, error) {
	log := that.logger.With("method", "JoinRoom", "room", roomID)

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return entity.RoomView{}, fmt.Errorf("failed get room by id: %w", err)
	}

	player := &entity.Player{ID: pkg.GeneratePlayerID(), Name: playerName}

	var view entity.RoomView
	err = room.WithLock(func() error {
		if joinErr := room.Join(player); joinErr != nil {
			return joinErr
		}

		view = room.View()
		that.publish(ctx, log, events.Event{
			Kind:     events.KindPlayerJoined,
			RoomID:   roomID,
			Room:     &view,
			PlayerID: player.ID,
			Text:     player.Name,
		})

		return nil
	})
	if err != nil {
		return entity.RoomView{}, err
	}

	log.Info("player joined", "player", player.ID)

	return view, nil
}

// LeaveRoom - an empty room is removed together with its game and clock.
func (that *RoomManager) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	log := that.logger.With("method", "LeaveRoom", "room", roomID)

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed get room by id: %w", err)
	}

	return room.WithLock(func() error {
		var name string
		if host := room.Host(); host != nil && host.ID == playerID {
			name = host.Name
		} else if guest := room.Guest(); guest != nil && guest.ID == playerID {
			name = guest.Name
		}

		empty, leaveErr := room.Leave(playerID)
		if leaveErr != nil {
			return leaveErr
		}

		if empty {
			that.clock.Cancel(roomID)
			if deleteErr := that.roomRepo.DeleteByID(ctx, roomID); deleteErr != nil {
				return fmt.Errorf("failed delete room: %w", deleteErr)
			}

			if deleteErr := that.gameRepo.DeleteByRoomID(ctx, roomID); deleteErr != nil {
				return fmt.Errorf("failed delete game: %w", deleteErr)
			}

			log.Info("room removed", "player", playerID)

			return nil
		}

		view := room.View()
		that.publish(ctx, log, events.Event{
			Kind:     events.KindPlayerLeft,
			RoomID:   roomID,
			Room:     &view,
			PlayerID: playerID,
			Text:     name,
		})

		log.Info("player left", "player", playerID)

		return nil
	})
}

func (that *RoomManager) GetRoom(ctx context.Context, roomID string) (entity.RoomView, error) {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return entity.RoomView{}, err
	}

	return room.View(), nil
}

func (that *RoomManager) publish(ctx context.Context, log *slog.Logger, event events.Event) {
	if err := that.publisher.Publish(ctx, event.RoomID, event); err != nil {
		log.Warn("failed to publish room event", "kind", event.Kind, "error", err)
	}
}
