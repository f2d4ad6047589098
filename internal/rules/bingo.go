package rules

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// NewCard generates a 5x5 bingo card holding a permutation of 1..25:
// a uniformly random remaining number is picked and placed in row-major
// order until the pool is empty.
func NewCard() *entity.Card {
	pool := make([]int, 0, entity.CardSize*entity.CardSize)
	for n := 1; n <= entity.CardSize*entity.CardSize; n++ {
		pool = append(pool, n)
	}

	card := &entity.Card{}
	for i := 0; i < entity.CardSize*entity.CardSize; i++ {
		idx := rand.Intn(len(pool)) //nolint: gosec // card shuffling needs no crypto rand
		card.Grid[i/entity.CardSize][i%entity.CardSize] = pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
	}

	return card
}

// ToggleCell flips the marked flag at the given coordinate of the acting
// role's own card and records it as the last toggled cell. The first
// toggle to complete a line wins: the outcome is set synchronously, so a
// tie is impossible.
func ToggleCell(session *entity.Session, role entity.Role, cell entity.Cell) error {
	if session.Outcome != entity.OutcomeNone {
		return apperror.ErrGameConcluded
	}

	if cell.Row < 0 || cell.Row >= entity.CardSize || cell.Col < 0 || cell.Col >= entity.CardSize {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, cell.Row, cell.Col)
	}

	card := session.Cards[role]
	if card == nil {
		return apperror.ErrGameNotStarted
	}

	card.Marked[cell.Row][cell.Col] = !card.Marked[cell.Row][cell.Col]
	card.LastMarked = &entity.Cell{Row: cell.Row, Col: cell.Col}

	if CardHasLine(card.Marked) {
		session.Outcome = entity.Outcome(role)
		session.Turn = entity.RoleNone
	}

	return nil
}

// CardHasLine reports whether any of the 12 bingo lines (5 rows, 5 columns,
// 2 diagonals) is fully marked.
func CardHasLine(marked [entity.CardSize][entity.CardSize]bool) bool {
	for row := 0; row < entity.CardSize; row++ {
		full := true
		for col := 0; col < entity.CardSize; col++ {
			if !marked[row][col] {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	for col := 0; col < entity.CardSize; col++ {
		full := true
		for row := 0; row < entity.CardSize; row++ {
			if !marked[row][col] {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	main, anti := true, true
	for i := 0; i < entity.CardSize; i++ {
		if !marked[i][i] {
			main = false
		}
		if !marked[i][entity.CardSize-1-i] {
			anti = false
		}
	}

	return main || anti
}
