package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// concludeTicTacToe plays out a round where the role holding the turn takes
// the top row. It returns the winning role.
func concludeTicTacToe(t *testing.T, manager *SessionManager, sessionID string) entity.Role {
	t.Helper()
	ctx := context.Background()

	view, err := manager.Session(ctx, sessionID)
	require.NoError(t, err)
	winner := view.Session.Turn
	require.NotEqual(t, entity.RoleNone, winner)

	identityByID := map[string]entity.Identity{
		identity1.ID: identity1,
		identity2.ID: identity2,
	}
	first := identityByID[view.Session.Slots[winner]]
	second := identityByID[view.Session.Slots[entity.Opponent(winner)]]

	for _, move := range []struct {
		identity entity.Identity
		cell     int
	}{
		{first, 0}, {second, 3}, {first, 1}, {second, 4}, {first, 2},
	} {
		_, err := manager.MakeTurn(ctx, sessionID, move.identity, move.cell)
		require.NoError(t, err)
	}

	return winner
}

func TestSessionManager_Rematch(t *testing.T) {
	ctx := context.Background()

	t.Run("A concluded tic-tac-toe round resets to a fresh board", func(t *testing.T) {
		// Given: a concluded round won by role A
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")
		concludeTicTacToe(t, manager, "s1")

		// When: a rematch is requested
		session, err := manager.Rematch(ctx, "s1")
		require.NoError(t, err)

		// Then: board and outcome are cleared, turn returns to the starter
		assert.Equal(t, entity.OutcomeNone, session.Outcome)
		assert.Equal(t, [entity.BoardSize]string{}, session.Board)
		assert.Equal(t, session.StartingRole, session.Turn)

		// Then: bindings and the win ledger survive
		persisted, err := manager.Session(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, identity1.ID, persisted.Session.Slots[entity.RoleA])
		assert.Equal(t, identity2.ID, persisted.Session.Slots[entity.RoleB])
		assert.Equal(t, 1, persisted.Session.Ledger[identity1.ID])
		assert.Equal(t, entity.StateInProgress, persisted.State)
	})

	t.Run("A concluded bingo round deals fresh cards", func(t *testing.T) {
		// Given: a concluded bingo round
		manager, _ := newTestManager(entity.VariantBingo)
		startBingo(t, manager, "s1")

		before, err := manager.Session(ctx, "s1")
		require.NoError(t, err)
		gridBefore := before.Session.Cards[entity.RoleA].Grid

		for col := 0; col < entity.CardSize; col++ {
			_, err := manager.ToggleCell(ctx, "s1", identity1, entity.RoleNone, entity.Cell{Row: 0, Col: col})
			require.NoError(t, err)
		}

		// When: a rematch is requested
		session, err := manager.Rematch(ctx, "s1")
		require.NoError(t, err)

		// Then: outcome and marks are gone and both cards were reshuffled
		assert.Equal(t, entity.OutcomeNone, session.Outcome)
		for _, role := range [2]entity.Role{entity.RoleA, entity.RoleB} {
			card := session.Cards[role]
			require.NotNil(t, card)
			assert.Equal(t, [entity.CardSize][entity.CardSize]bool{}, card.Marked)
			assert.Nil(t, card.LastMarked)
		}
		assert.NotEqual(t, gridBefore, session.Cards[entity.RoleA].Grid)
	})

	t.Run("A live round cannot be reset", func(t *testing.T) {
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")

		_, err := manager.Rematch(ctx, "s1")
		require.ErrorIs(t, err, apperror.ErrRoundNotConcluded)
	})
}

func TestSessionManager_ReassignStarter(t *testing.T) {
	ctx := context.Background()

	t.Run("Swapping seats exchanges bindings but not ledger entries", func(t *testing.T) {
		// Given: a concluded round won by I1 playing role A
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")
		concludeTicTacToe(t, manager, "s1")

		// When: role B opens the next round and the seats swap
		session, err := manager.ReassignStarter(ctx, "s1", identity1, entity.RoleB, true)
		require.NoError(t, err)

		// Then: I1 now plays role B and the board is ready for role B
		assert.Equal(t, identity2.ID, session.Slots[entity.RoleA])
		assert.Equal(t, identity1.ID, session.Slots[entity.RoleB])
		assert.Equal(t, identity2.DisplayName, session.Names[entity.RoleA])
		assert.Equal(t, identity1.DisplayName, session.Names[entity.RoleB])
		assert.Equal(t, entity.RoleB, session.StartingRole)
		assert.Equal(t, entity.RoleB, session.Turn)
		assert.Equal(t, [entity.BoardSize]string{}, session.Board)
		assert.Equal(t, entity.OutcomeNone, session.Outcome)

		// Then: the win stays with the identity that earned it
		assert.Equal(t, 1, session.Ledger[identity1.ID])
		assert.Equal(t, 0, session.Ledger[identity2.ID])
	})

	t.Run("Keeping seats only changes the opening role", func(t *testing.T) {
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")
		concludeTicTacToe(t, manager, "s1")

		session, err := manager.ReassignStarter(ctx, "s1", identity2, entity.RoleB, false)
		require.NoError(t, err)

		assert.Equal(t, identity1.ID, session.Slots[entity.RoleA])
		assert.Equal(t, identity2.ID, session.Slots[entity.RoleB])
		assert.Equal(t, entity.RoleB, session.Turn)
	})

	t.Run("Wins accumulate per identity across seat swaps", func(t *testing.T) {
		// Given: I1 wins a round as role A, then swaps into role B
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")
		concludeTicTacToe(t, manager, "s1")

		_, err := manager.ReassignStarter(ctx, "s1", identity1, entity.RoleB, true)
		require.NoError(t, err)

		// When: I1 wins the next round from the other seat
		winner := concludeTicTacToe(t, manager, "s1")
		require.Equal(t, entity.RoleB, winner)

		// Then: both wins sit under I1's identity
		view, err := manager.Session(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 2, view.Session.Ledger[identity1.ID])
		assert.Equal(t, 0, view.Session.Ledger[identity2.ID])
		total := 0
		for _, wins := range view.Session.Ledger {
			total += wins
		}
		assert.Equal(t, 2, total)
	})

	t.Run("Validation happens before any write", func(t *testing.T) {
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")
		concludeTicTacToe(t, manager, "s1")

		_, err := manager.ReassignStarter(ctx, "s1", identity1, entity.RoleNone, false)
		require.ErrorIs(t, err, apperror.ErrInvalidRole)

		_, err = manager.ReassignStarter(ctx, "s1", identity3, entity.RoleA, true)
		require.ErrorIs(t, err, apperror.ErrNotParticipant)
	})

	t.Run("The starter cannot change mid round or outside tic-tac-toe", func(t *testing.T) {
		manager, _ := newTestManager(entity.VariantUnset)
		startTicTacToe(t, manager, "s1")

		_, err := manager.ReassignStarter(ctx, "s1", identity1, entity.RoleB, false)
		require.ErrorIs(t, err, apperror.ErrRoundNotConcluded)

		bingoManager, _ := newTestManager(entity.VariantBingo)
		startBingo(t, bingoManager, "s2")

		_, err = bingoManager.ReassignStarter(ctx, "s2", identity1, entity.RoleB, false)
		require.ErrorIs(t, err, apperror.ErrVariantMismatch)
	})
}
