package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

// GameRepository - the live session of every room, keyed by room id.
type GameRepository interface {
	Put(ctx context.Context, session *entity.Session) error
	GetByRoomID(ctx context.Context, roomID string) (*entity.Session, error)
	DeleteByRoomID(ctx context.Context, roomID string) error
}

type memGame struct {
	sessions sync.Map // room id -> *entity.Session
}

func NewGameRepository() GameRepository {
	return &memGame{}
}

// Put - stores the session, replacing the previous one of the same room.
func (that *memGame) Put(_ context.Context, session *entity.Session) error {
	that.sessions.Store(session.RoomID(), session)

	return nil
}

func (that *memGame) GetByRoomID(_ context.Context, roomID string) (*entity.Session, error) {
	value, ok := that.sessions.Load(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: room %s", apperror.ErrGameNotStarted, roomID)
	}

	session, _ := value.(*entity.Session)

	return session, nil
}

func (that *memGame) DeleteByRoomID(_ context.Context, roomID string) error {
	that.sessions.Delete(roomID)

	return nil
}
