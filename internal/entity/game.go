package entity

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	HolesPerSide  = 9
	BoardSize     = 2 * HolesPerSide
	StonesPerHole = 9
	TotalStones   = BoardSize * StonesPerHole

	WinThreshold = 82
	DrawScore    = TotalStones / 2

	NoTuz = -1
)

var ErrUnknownSide = errors.New("unknown side")

// Side - one of the two players of a game. White owns holes 0..8 and moves first.
type Side int

const (
	White Side = iota
	Black
)

func (that Side) Opponent() Side {
	return 1 - that
}

// Owns - reports whether the absolute hole index lies in this side's territory.
func (that Side) Owns(hole int) bool {
	first := int(that) * HolesPerSide
	return hole >= first && hole < first+HolesPerSide
}

// FirstHole - absolute index of this side's first hole.
func (that Side) FirstHole() int {
	return int(that) * HolesPerSide
}

func (that Side) String() string {
	switch that {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("side(%d)", int(that))
	}
}

func (that Side) MarshalText() ([]byte, error) {
	if that != White && that != Black {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSide, int(that))
	}

	return []byte(that.String()), nil
}

func (that *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white":
		*that = White
	case "black":
		*that = Black
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSide, text)
	}

	return nil
}

type Winner string

const (
	WinnerNone  Winner = ""
	WinnerWhite Winner = "white"
	WinnerBlack Winner = "black"
	WinnerDraw  Winner = "draw"
)

func WinnerOf(side Side) Winner {
	if side == White {
		return WinnerWhite
	}

	return WinnerBlack
}

type GameOverReason string

const (
	ReasonNone        GameOverReason = "none"
	ReasonResignation GameOverReason = "resignation"
	ReasonTimeout     GameOverReason = "timeout"
)

type MoveRecord struct {
	MoveNumber  int    `json:"moveNumber"`
	Side        Side   `json:"side"`
	Hole        int    `json:"hole"`
	Description string `json:"description"`
}

// GameState - the mutable record of one game. Access it only through Session.
type GameState struct {
	RoomID string

	Holes [BoardSize]int
	Kazan [2]int
	Tuz   [2]int

	CurrentPlayer  Side
	GameOver       bool
	Winner         Winner
	GameOverReason GameOverReason
	MoveNumber     int
	MoveHistory    []MoveRecord

	WhiteTimeRemaining float64
	BlackTimeRemaining float64
	TimerEnabled       bool
	UndoEnabled        bool
	LastMoveTimestamp  time.Time
}

// NewGameState - initial position: 9 stones per hole, no tuz, White to move.
func NewGameState(roomID string, timerSetting int, undoEnabled bool) *GameState {
	state := &GameState{
		RoomID:             roomID,
		Tuz:                [2]int{NoTuz, NoTuz},
		CurrentPlayer:      White,
		GameOverReason:     ReasonNone,
		MoveNumber:         1,
		MoveHistory:        []MoveRecord{},
		WhiteTimeRemaining: float64(timerSetting),
		BlackTimeRemaining: float64(timerSetting),
		TimerEnabled:       timerSetting > 0,
		UndoEnabled:        undoEnabled,
	}

	for i := range state.Holes {
		state.Holes[i] = StonesPerHole
	}

	return state
}

// Finish - ends the game. A finished game is never reopened.
func (that *GameState) Finish(winner Winner, reason GameOverReason) {
	that.GameOver = true
	that.Winner = winner
	that.GameOverReason = reason
}

func (that *GameState) TimeRemaining(side Side) float64 {
	if side == White {
		return that.WhiteTimeRemaining
	}

	return that.BlackTimeRemaining
}

func (that *GameState) SetTimeRemaining(side Side, seconds float64) {
	if side == White {
		that.WhiteTimeRemaining = seconds
	} else {
		that.BlackTimeRemaining = seconds
	}
}

// StonesInPlay - stones on the board plus both kazans.
func (that *GameState) StonesInPlay() int {
	total := that.Kazan[White] + that.Kazan[Black]
	for _, stones := range that.Holes {
		total += stones
	}

	return total
}

type GameSnapshot struct {
	RoomID             string         `json:"roomId"`
	Holes              [BoardSize]int `json:"holes"`
	Kazan              [2]int         `json:"kazan"`
	Tuz                [2]int         `json:"tuz"`
	CurrentPlayer      Side           `json:"currentPlayer"`
	GameOver           bool           `json:"gameOver"`
	Winner             Winner         `json:"winner,omitempty"`
	GameOverReason     GameOverReason `json:"gameOverReason"`
	MoveNumber         int            `json:"moveNumber"`
	MoveHistory        []MoveRecord   `json:"moveHistory"`
	WhiteTimeRemaining float64        `json:"whiteTimeRemaining"`
	BlackTimeRemaining float64        `json:"blackTimeRemaining"`
	TimerEnabled       bool           `json:"timerEnabled"`
	UndoEnabled        bool           `json:"undoEnabled"`
	LastMoveTime       *int64         `json:"lastMoveTime"`
}

// Snapshot - a copy that shares no memory with the state.
func (that *GameState) Snapshot() GameSnapshot {
	snapshot := GameSnapshot{
		RoomID:             that.RoomID,
		Holes:              that.Holes,
		Kazan:              that.Kazan,
		Tuz:                that.Tuz,
		CurrentPlayer:      that.CurrentPlayer,
		GameOver:           that.GameOver,
		Winner:             that.Winner,
		GameOverReason:     that.GameOverReason,
		MoveNumber:         that.MoveNumber,
		MoveHistory:        append([]MoveRecord{}, that.MoveHistory...),
		WhiteTimeRemaining: that.WhiteTimeRemaining,
		BlackTimeRemaining: that.BlackTimeRemaining,
		TimerEnabled:       that.TimerEnabled,
		UndoEnabled:        that.UndoEnabled,
	}

	if !that.LastMoveTimestamp.IsZero() {
		millis := that.LastMoveTimestamp.UnixMilli()
		snapshot.LastMoveTime = &millis
	}

	return snapshot
}

type HistoryPage struct {
	Moves      []MoveRecord `json:"moves"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

// Session - a GameState guarded by its own mutex.
type Session struct {
	roomID string

	mu    sync.Mutex
	state *GameState
}

func NewSession(state *GameState) *Session {
	return &Session{
		roomID: state.RoomID,
		state:  state,
	}
}

func (that *Session) RoomID() string {
	return that.roomID
}

// Update - runs fn with exclusive access to the state.
// The state pointer must not escape fn.
func (that *Session) Update(fn func(state *GameState) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return fn(that.state)
}

func (that *Session) Snapshot() GameSnapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Snapshot()
}
