package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/rules"
)

// MakeTurn validates and applies a tic-tac-toe move by the acting identity.
// A rejected move never reaches the store. On an accepted move only the
// changed fields go out, and when the move concludes the round, the outcome
// and the winner's ledger increment ride the same merge so the store
// applies them atomically.
func (that *SessionManager) MakeTurn(ctx context.Context, sessionID string, identity entity.Identity, cell int) (*entity.Session, error) {
	session, role, err := that.actingRole(ctx, sessionID, identity, entity.VariantTicTacToe)
	if err != nil {
		return nil, err
	}

	if err = rules.MakeTurn(session, role, cell); err != nil {
		return nil, err
	}

	updates := map[string]any{
		entity.FieldBoard: session.Board,
		entity.FieldTurn:  session.Turn,
	}

	if session.Outcome != entity.OutcomeNone {
		updates[entity.FieldOutcome] = session.Outcome
		that.stageWin(session, updates)
	}

	if err = that.sessions.MergeUpdate(ctx, sessionID, updates); err != nil {
		return nil, fmt.Errorf("failed to store turn: %w", err)
	}

	return session, nil
}

// ToggleCell flips a cell on the acting identity's own bingo card. target
// names the card being marked; marking the opponent's card is rejected
// before any store interaction.
func (that *SessionManager) ToggleCell(ctx context.Context, sessionID string, identity entity.Identity, target entity.Role, cell entity.Cell) (*entity.Session, error) {
	session, role, err := that.actingRole(ctx, sessionID, identity, entity.VariantBingo)
	if err != nil {
		return nil, err
	}

	if target != entity.RoleNone && target != role {
		return nil, apperror.ErrNotYourCard
	}

	if err = rules.ToggleCell(session, role, cell); err != nil {
		return nil, err
	}

	card := session.Cards[role]
	updates := map[string]any{
		entity.CardMarkedField(role):     card.Marked,
		entity.CardLastMarkedField(role): card.LastMarked,
	}

	if session.Outcome != entity.OutcomeNone {
		updates[entity.FieldOutcome] = session.Outcome
		that.stageWin(session, updates)
	}

	if err = that.sessions.MergeUpdate(ctx, sessionID, updates); err != nil {
		return nil, fmt.Errorf("failed to store toggle: %w", err)
	}

	return session, nil
}

// actingRole loads the session and gates a move: the caller must be bound
// to a role, the session variant must match the move kind, and moves are
// accepted only once both roles are bound.
func (that *SessionManager) actingRole(ctx context.Context, sessionID string, identity entity.Identity, variant entity.Variant) (*entity.Session, entity.Role, error) {
	session, err := that.liveSession(ctx, sessionID)
	if err != nil {
		return nil, entity.RoleNone, err
	}

	if session.Variant == entity.VariantUnset {
		return nil, entity.RoleNone, apperror.ErrVariantNotSet
	}
	if session.Variant != variant {
		return nil, entity.RoleNone, apperror.ErrVariantMismatch
	}

	if identity.ID == "" {
		return nil, entity.RoleNone, apperror.ErrNotParticipant
	}

	role := session.RoleOf(identity.ID)
	if role == entity.RoleNone {
		return nil, entity.RoleNone, apperror.ErrNotParticipant
	}

	if !session.BothBound() {
		return nil, entity.RoleNone, apperror.ErrGameNotStarted
	}

	return session, role, nil
}

// stageWin increments the winning identity's ledger entry. Wins are keyed
// by identity, not role, so they survive seat swaps between rematches.
func (that *SessionManager) stageWin(session *entity.Session, updates map[string]any) {
	if session.Outcome == entity.OutcomeDraw {
		return
	}

	winnerID := session.Slots[entity.Role(session.Outcome)]
	if winnerID == "" {
		return
	}

	session.Ledger[winnerID]++
	updates[entity.LedgerField(winnerID)] = session.Ledger[winnerID]
}
