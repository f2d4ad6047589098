package rules

import (
	"fmt"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// WinCombos are the 8 standard tic-tac-toe triples: 3 rows, 3 columns and
// 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// MakeTurn validates a tic-tac-toe move for the acting role and applies it
// to the session in place. Turn strictly alternates after every accepted
// non-terminal move; the turn is cleared the instant an outcome is
// detected, locking further moves.
func MakeTurn(session *entity.Session, role entity.Role, cell int) error {
	if session.Outcome != entity.OutcomeNone {
		return apperror.ErrGameConcluded
	}

	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if session.Turn != role {
		return apperror.ErrNotYourTurn
	}

	if session.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	session.Board[cell] = string(role)

	switch outcome := BoardOutcome(session.Board); outcome {
	case entity.OutcomeNone:
		session.Turn = entity.Opponent(role)
	default:
		session.Outcome = outcome
		session.Turn = entity.RoleNone
	}

	return nil
}

// BoardOutcome checks the 8 winning triples. Any triple with three equal
// non-empty marks yields that role as winner; a full board with no winner
// is a draw; otherwise the round is still live.
func BoardOutcome(board [entity.BoardSize]string) entity.Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return entity.Outcome(a)
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return entity.OutcomeNone
		}
	}

	return entity.OutcomeDraw
}
