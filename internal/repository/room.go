package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

type memRoom struct {
	rooms sync.Map // room id -> *entity.Room
}

func NewRoomRepository() RoomRepository {
	return &memRoom{}
}

// Create - stores the room unless the id is already taken.
func (that *memRoom) Create(_ context.Context, room *entity.Room) error {
	if _, loaded := that.rooms.LoadOrStore(room.ID, room); loaded {
		return fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, room.ID)
	}

	return nil
}

func (that *memRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	value, ok := that.rooms.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	room, _ := value.(*entity.Room)

	return room, nil
}

func (that *memRoom) DeleteByID(_ context.Context, id string) error {
	that.rooms.Delete(id)

	return nil
}
