package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/rules"
	"github.com/rocketscienceinc/gameroom-backend/internal/store"
)

// Attach idempotently binds a viewer to the session. The first attacher
// creates the document and takes role A; a later attacher takes whichever
// role is empty, provided it does not already hold the other one; when both
// roles belong to other identities, the viewer attaches as a spectator
// (RoleNone) with a read-only view rather than erroring.
//
// Every write here is a partial-field merge over the single slot or name
// path concerned: two identities bootstrapping in the same instant from
// stale reads keep both assignments intact as long as they target
// different fields.
func (that *SessionManager) Attach(ctx context.Context, sessionID string, identity entity.Identity) (*entity.Session, entity.Role, error) {
	log := that.logger.With("method", "Attach")

	doc, err := that.sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		session, createErr := that.createSession(ctx, sessionID, identity)
		if createErr == nil {
			log.Info("session created", "session", sessionID, "identity", identity.ID)
			return session, entity.RoleA, nil
		}
		if !errors.Is(createErr, store.ErrAlreadyExists) {
			return nil, entity.RoleNone, createErr
		}

		// Lost the create race; fall through to the reconcile path.
		if doc, err = that.sessions.Get(ctx, sessionID); err != nil {
			return nil, entity.RoleNone, fmt.Errorf("failed to get session: %w", err)
		}
	} else if err != nil {
		return nil, entity.RoleNone, fmt.Errorf("failed to get session: %w", err)
	}

	session := entity.SessionFromFields(sessionID, doc)
	updates := make(map[string]any)

	role := session.RoleOf(identity.ID)
	if role == entity.RoleNone {
		role = that.bindOpenRole(session, identity, updates)
	}

	that.reconcileNames(session, identity, role, updates)

	if session.Variant == entity.VariantBingo {
		that.ensureCards(session, updates)
	}

	if len(updates) > 0 {
		if err = that.sessions.MergeUpdate(ctx, sessionID, updates); err != nil {
			return nil, entity.RoleNone, fmt.Errorf("failed to reconcile session: %w", err)
		}
	}

	if role == entity.RoleNone {
		log.Info("attached as spectator", "session", sessionID, "identity", identity.ID)
	}

	return session, role, nil
}

func (that *SessionManager) createSession(ctx context.Context, sessionID string, identity entity.Identity) (*entity.Session, error) {
	session := entity.SessionFromFields(sessionID, nil)
	session.Slots[entity.RoleA] = identity.ID
	session.Names[entity.RoleA] = displayName(identity, entity.RoleA)
	session.StartingRole = entity.RoleA
	session.Ledger[identity.ID] = 0
	session.Variant = that.defaultVariant

	fields := map[string]any{
		entity.FieldCreatedAt:           time.Now().UTC(),
		entity.SlotField(entity.RoleA):  identity.ID,
		entity.NameField(entity.RoleA):  session.Names[entity.RoleA],
		entity.FieldStartingRole:        entity.RoleA,
		entity.LedgerField(identity.ID): 0,
	}

	switch that.defaultVariant {
	case entity.VariantTicTacToe:
		fields[entity.FieldVariant] = that.defaultVariant
		fields[entity.FieldTurn] = entity.RoleA
		session.Turn = entity.RoleA
	case entity.VariantBingo:
		fields[entity.FieldVariant] = that.defaultVariant
		stageCard(session, entity.RoleA, fields)
	}

	if err := that.sessions.Create(ctx, sessionID, fields); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// bindOpenRole binds the identity to the first empty role and seeds its
// ledger entry. The bind is a single-field write per role; the narrow
// double-bootstrap race on the same empty role is accepted best effort.
func (that *SessionManager) bindOpenRole(session *entity.Session, identity entity.Identity, updates map[string]any) entity.Role {
	role := session.OpenRole()
	if role == entity.RoleNone {
		return entity.RoleNone
	}

	session.Slots[role] = identity.ID
	session.Names[role] = displayName(identity, role)
	updates[entity.SlotField(role)] = identity.ID
	updates[entity.NameField(role)] = session.Names[role]

	if _, ok := session.Ledger[identity.ID]; !ok {
		session.Ledger[identity.ID] = 0
		updates[entity.LedgerField(identity.ID)] = 0
	}

	return role
}

// reconcileNames backfills a missing display name on any bound role and
// refreshes the caller's own so the session always reflects the latest
// known name for each currently bound identity.
func (that *SessionManager) reconcileNames(session *entity.Session, identity entity.Identity, role entity.Role, updates map[string]any) {
	for _, bound := range [2]entity.Role{entity.RoleA, entity.RoleB} {
		if session.Slots[bound] == "" || session.Names[bound] != "" {
			continue
		}
		session.Names[bound] = defaultName(bound)
		updates[entity.NameField(bound)] = session.Names[bound]
	}

	if role == entity.RoleNone {
		return
	}

	if current := displayName(identity, role); session.Names[role] != current {
		session.Names[role] = current
		updates[entity.NameField(role)] = current
	}
}

func stageCard(session *entity.Session, role entity.Role, updates map[string]any) {
	card := rules.NewCard()
	session.Cards[role] = card
	updates[entity.CardGridField(role)] = card.Grid
	updates[entity.CardMarkedField(role)] = card.Marked
	updates[entity.CardLastMarkedField(role)] = nil
}

func displayName(identity entity.Identity, role entity.Role) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	return defaultName(role)
}

func defaultName(role entity.Role) string {
	return "Player " + string(role)
}
