package entity

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
)

type RoomStatus int32

const (
	RoomWaiting RoomStatus = iota
	RoomPlaying
	RoomFinished
)

func (that RoomStatus) String() string {
	switch that {
	case RoomWaiting:
		return "waiting"
	case RoomPlaying:
		return "playing"
	case RoomFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int32(that))
	}
}

func (that RoomStatus) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *RoomStatus) UnmarshalText(text []byte) error {
	for _, status := range []RoomStatus{RoomWaiting, RoomPlaying, RoomFinished} {
		if status.String() == string(text) {
			*that = status
			return nil
		}
	}

	return fmt.Errorf("unknown room status %q", text)
}

// Room - up to two players sharing one game configuration.
// The host sits in seat 1 and plays White, the guest plays Black.
type Room struct {
	ID           string
	TimerSetting int
	UndoEnabled  bool

	// lifecycle serializes start, restart, join and leave sequences
	lifecycle sync.Mutex

	mu    sync.RWMutex
	host  *Player
	guest *Player

	status atomic.Int32
}

func NewRoom(id string, host *Player, timerSetting int, undoEnabled bool) *Room {
	return &Room{
		ID:           id,
		TimerSetting: timerSetting,
		UndoEnabled:  undoEnabled,
		host:         host,
	}
}

// WithLock - runs fn while holding the room lifecycle lock.
// fn must not call WithLock on the same room.
func (that *Room) WithLock(fn func() error) error {
	that.lifecycle.Lock()
	defer that.lifecycle.Unlock()

	return fn()
}

func (that *Room) Status() RoomStatus {
	return RoomStatus(that.status.Load())
}

// SetStatus - safe without the lifecycle lock, so game sessions can finish a room.
func (that *Room) SetStatus(status RoomStatus) {
	that.status.Store(int32(status))
}

func (that *Room) Host() *Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.host
}

func (that *Room) Guest() *Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.guest
}

func (that *Room) IsFull() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.host != nil && that.guest != nil
}

// SideOf - host plays White, guest plays Black.
func (that *Room) SideOf(playerID string) (Side, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	switch {
	case that.host != nil && that.host.ID == playerID:
		return White, nil
	case that.guest != nil && that.guest.ID == playerID:
		return Black, nil
	default:
		return White, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}
}

func (that *Room) Join(player *Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.host != nil && that.guest != nil {
		return fmt.Errorf("%w: %s", apperror.ErrRoomFull, that.ID)
	}

	if that.host == nil {
		that.host = player
	} else {
		that.guest = player
	}

	return nil
}

// Leave - removes the player and reports whether the room is now empty.
// When the host leaves the guest takes over seat 1.
func (that *Room) Leave(playerID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.host != nil && that.host.ID == playerID:
		that.host = that.guest
		that.guest = nil
	case that.guest != nil && that.guest.ID == playerID:
		that.guest = nil
	default:
		return false, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	that.SetStatus(RoomWaiting)

	return that.host == nil, nil
}

type RoomView struct {
	RoomID       string      `json:"roomId"`
	Status       RoomStatus  `json:"status"`
	TimerSetting int         `json:"timerSetting"`
	UndoEnabled  bool        `json:"undoEnabled"`
	Player1      *PlayerView `json:"player1"`
	Player2      *PlayerView `json:"player2"`
}

func (that *Room) View() RoomView {
	that.mu.RLock()
	defer that.mu.RUnlock()

	view := RoomView{
		RoomID:       that.ID,
		Status:       that.Status(),
		TimerSetting: that.TimerSetting,
		UndoEnabled:  that.UndoEnabled,
	}

	if that.host != nil {
		view.Player1 = &PlayerView{ID: that.host.ID, Name: that.host.Name, Host: true}
	}

	if that.guest != nil {
		view.Player2 = &PlayerView{ID: that.guest.ID, Name: that.guest.Name}
	}

	return view
}
