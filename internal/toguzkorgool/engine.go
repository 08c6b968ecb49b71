// Package toguzkorgool implements the board rules of Toguz Korgool.
// Functions here mutate the given state and never lock; callers hold the session lock.
package toguzkorgool

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/apperror"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/entity"
)

const tuzTrigger = 3

var (
	ErrGameOver    = fmt.Errorf("%w: game is already over", apperror.ErrInvalidMove)
	ErrWrongSide   = fmt.Errorf("%w: it is not this side's turn", apperror.ErrInvalidMove)
	ErrForeignHole = fmt.Errorf("%w: hole does not belong to the side", apperror.ErrInvalidMove)
	ErrEmptyHole   = fmt.Errorf("%w: hole is empty", apperror.ErrInvalidMove)
)

// MakeMove - validates and applies one move of side from the absolute hole index.
// Returns a human-readable description for the move history.
func MakeMove(state *entity.GameState, side entity.Side, hole int) (string, error) {
	if err := validateMove(state, side, hole); err != nil {
		return "", err
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "%s moves from hole %d", sideTitle(side), relativeHole(side, hole)+1)

	lastPos := sow(state, hole)

	if declareTuz(state, side, lastPos) {
		fmt.Fprintf(&desc, " [tuz declared at hole %d]", relativeHole(side.Opponent(), lastPos)+1)
	} else if captured := capture(state, side, lastPos); captured > 0 {
		fmt.Fprintf(&desc, " [captured %d stones]", captured)
	}

	if !checkAtsyroo(state) {
		checkScore(state)
	}

	if !state.GameOver {
		state.CurrentPlayer = side.Opponent()
	}

	state.MoveNumber++

	return desc.String(), nil
}

// validateMove - every check runs before the state is touched.
func validateMove(state *entity.GameState, side entity.Side, hole int) error {
	switch {
	case state.GameOver:
		return ErrGameOver
	case state.CurrentPlayer != side:
		return fmt.Errorf("%w: %s", ErrWrongSide, side)
	case !side.Owns(hole):
		return fmt.Errorf("%w: %s, hole %d", ErrForeignHole, side, hole)
	case state.Holes[hole] == 0:
		return fmt.Errorf("%w: hole %d", ErrEmptyHole, hole)
	}

	return nil
}

// sow - distributes the stones of hole and returns the last position touched.
// A single stone moves to the next hole; otherwise one stone stays in the source hole.
func sow(state *entity.GameState, hole int) int {
	stones := state.Holes[hole]
	state.Holes[hole] = 0

	if stones == 1 {
		pos := next(hole)
		drop(state, pos)

		return pos
	}

	state.Holes[hole] = 1
	pos := hole
	for range stones - 1 {
		pos = next(pos)
		drop(state, pos)
	}

	return pos
}

// drop - a stone landing on a tuz goes to the tuz owner's kazan.
func drop(state *entity.GameState, pos int) {
	switch pos {
	case state.Tuz[entity.White]:
		state.Kazan[entity.White]++
	case state.Tuz[entity.Black]:
		state.Kazan[entity.Black]++
	default:
		state.Holes[pos]++
	}
}

func declareTuz(state *entity.GameState, side entity.Side, lastPos int) bool {
	opponent := side.Opponent()

	if !opponent.Owns(lastPos) || state.Holes[lastPos] != tuzTrigger || state.Tuz[side] != entity.NoTuz {
		return false
	}

	// the opponent's ninth hole can never become a tuz
	if lastPos == opponent.FirstHole()+entity.HolesPerSide-1 {
		return false
	}

	if opponentTuz := state.Tuz[opponent]; opponentTuz != entity.NoTuz &&
		relativeHole(opponent, lastPos) == relativeHole(side, opponentTuz) {
		return false
	}

	state.Tuz[side] = lastPos
	state.Kazan[side] += state.Holes[lastPos]
	state.Holes[lastPos] = 0

	return true
}

func capture(state *entity.GameState, side entity.Side, lastPos int) int {
	if !side.Opponent().Owns(lastPos) || isTuz(state, lastPos) {
		return 0
	}

	stones := state.Holes[lastPos]
	if stones == 0 || stones%2 != 0 {
		return 0
	}

	state.Holes[lastPos] = 0
	state.Kazan[side] += stones

	return stones
}

// checkAtsyroo - when a side has no stones left the other side collects the rest
// and the larger kazan wins.
func checkAtsyroo(state *entity.GameState) bool {
	for _, side := range []entity.Side{entity.White, entity.Black} {
		if !isStarved(state, side) {
			continue
		}

		collector := side.Opponent()
		for i := collector.FirstHole(); i < collector.FirstHole()+entity.HolesPerSide; i++ {
			state.Kazan[collector] += state.Holes[i]
			state.Holes[i] = 0
		}

		switch {
		case state.Kazan[entity.White] > state.Kazan[entity.Black]:
			state.Finish(entity.WinnerWhite, entity.ReasonNone)
		case state.Kazan[entity.Black] > state.Kazan[entity.White]:
			state.Finish(entity.WinnerBlack, entity.ReasonNone)
		default:
			state.Finish(entity.WinnerDraw, entity.ReasonNone)
		}

		return true
	}

	return false
}

func checkScore(state *entity.GameState) {
	switch {
	case state.Kazan[entity.White] >= entity.WinThreshold:
		state.Finish(entity.WinnerWhite, entity.ReasonNone)
	case state.Kazan[entity.Black] >= entity.WinThreshold:
		state.Finish(entity.WinnerBlack, entity.ReasonNone)
	case state.Kazan[entity.White] == entity.DrawScore && state.Kazan[entity.Black] == entity.DrawScore:
		state.Finish(entity.WinnerDraw, entity.ReasonNone)
	}
}

func isStarved(state *entity.GameState, side entity.Side) bool {
	for i := side.FirstHole(); i < side.FirstHole()+entity.HolesPerSide; i++ {
		if state.Holes[i] > 0 {
			return false
		}
	}

	return true
}

func isTuz(state *entity.GameState, pos int) bool {
	return state.Tuz[entity.White] == pos || state.Tuz[entity.Black] == pos
}

func next(pos int) int {
	return (pos + 1) % entity.BoardSize
}

// relativeHole - 0-based index of an absolute hole within side's territory.
func relativeHole(side entity.Side, hole int) int {
	return hole - side.FirstHole()
}

func sideTitle(side entity.Side) string {
	if side == entity.White {
		return "White"
	}

	return "Black"
}
