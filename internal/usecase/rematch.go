package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// Rematch clears the concluded round: the outcome is reset and the playing
// surface regenerated (board wiped, bingo cards freshly shuffled). Role
// bindings and the win ledger are left untouched.
func (that *SessionManager) Rematch(ctx context.Context, sessionID string) (*entity.Session, error) {
	session, err := that.liveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Outcome == entity.OutcomeNone {
		return nil, apperror.ErrRoundNotConcluded
	}

	updates := map[string]any{entity.FieldOutcome: entity.OutcomeNone}
	session.Outcome = entity.OutcomeNone

	switch session.Variant {
	case entity.VariantTicTacToe:
		that.stageClearedBoard(session, updates)
	case entity.VariantBingo:
		for _, role := range [2]entity.Role{entity.RoleA, entity.RoleB} {
			if session.Slots[role] == "" {
				continue
			}
			stageCard(session, role, updates)
		}
	}

	if err = that.sessions.MergeUpdate(ctx, sessionID, updates); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	return session, nil
}

// ReassignStarter sets which role opens the next tic-tac-toe round and
// clears the board for it. When the caller asks to keep playing from the
// other seat, the two roles' identity and display-name bindings swap; the
// ledger is keyed by identity, so no ledger value moves. This is the only
// operation permitted to change a role binding after bootstrap.
func (that *SessionManager) ReassignStarter(ctx context.Context, sessionID string, identity entity.Identity, starter entity.Role, swapSeats bool) (*entity.Session, error) {
	if starter != entity.RoleA && starter != entity.RoleB {
		return nil, fmt.Errorf("%w: starting role %q", apperror.ErrInvalidRole, starter)
	}

	session, err := that.liveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Variant != entity.VariantTicTacToe {
		return nil, apperror.ErrVariantMismatch
	}

	if session.RoleOf(identity.ID) == entity.RoleNone {
		return nil, apperror.ErrNotParticipant
	}

	if session.Outcome == entity.OutcomeNone {
		return nil, apperror.ErrRoundNotConcluded
	}

	updates := map[string]any{
		entity.FieldOutcome:      entity.OutcomeNone,
		entity.FieldStartingRole: starter,
	}
	session.Outcome = entity.OutcomeNone
	session.StartingRole = starter

	if swapSeats {
		session.Slots[entity.RoleA], session.Slots[entity.RoleB] = session.Slots[entity.RoleB], session.Slots[entity.RoleA]
		session.Names[entity.RoleA], session.Names[entity.RoleB] = session.Names[entity.RoleB], session.Names[entity.RoleA]
		updates[entity.SlotField(entity.RoleA)] = session.Slots[entity.RoleA]
		updates[entity.SlotField(entity.RoleB)] = session.Slots[entity.RoleB]
		updates[entity.NameField(entity.RoleA)] = session.Names[entity.RoleA]
		updates[entity.NameField(entity.RoleB)] = session.Names[entity.RoleB]
	}

	that.stageClearedBoard(session, updates)
	updates[entity.FieldTurn] = starter
	session.Turn = starter

	if err = that.sessions.MergeUpdate(ctx, sessionID, updates); err != nil {
		return nil, fmt.Errorf("failed to reassign starter: %w", err)
	}

	return session, nil
}

func (that *SessionManager) stageClearedBoard(session *entity.Session, updates map[string]any) {
	session.Board = [entity.BoardSize]string{}

	starter := session.StartingRole
	if starter == entity.RoleNone {
		starter = entity.RoleA
	}
	session.Turn = starter

	updates[entity.FieldBoard] = session.Board
	updates[entity.FieldTurn] = starter
}
