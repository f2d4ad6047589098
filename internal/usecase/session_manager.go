package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/store"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (store.Document, error)
	Create(ctx context.Context, id string, fields map[string]any) error
	MergeUpdate(ctx context.Context, id string, fields map[string]any) error
	Subscribe(ctx context.Context, id string) (<-chan store.Document, func(), error)
}

type chatStore interface {
	AppendMessage(ctx context.Context, sessionID string, message *entity.ChatMessage) (*entity.ChatMessage, error)
	Messages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	SubscribeMessages(ctx context.Context, sessionID string) (<-chan []*entity.ChatMessage, func(), error)
}

// SessionManager owns the authoritative transition sequence for a session:
// bootstrap-driven slot binding, rule-engine validated moves, rematches and
// the win ledger. Every accepted mutation is written back as the smallest
// set of changed field paths so that a concurrent write by the opponent to
// a disjoint field is never overwritten.
type SessionManager struct {
	logger         *slog.Logger
	sessions       sessionStore
	chat           chatStore
	defaultVariant entity.Variant
}

// NewSessionManager builds a manager. defaultVariant may be entity.VariantUnset,
// in which case a newly created session stays variant-less until a
// SelectVariant call; single-variant deployments fix it at creation.
func NewSessionManager(logger *slog.Logger, sessions sessionStore, chat chatStore, defaultVariant entity.Variant) *SessionManager {
	return &SessionManager{
		logger:         logger,
		sessions:       sessions,
		chat:           chat,
		defaultVariant: defaultVariant,
	}
}

// Session reads and normalizes the current session state.
func (that *SessionManager) Session(ctx context.Context, sessionID string) (*SessionView, error) {
	session, err := that.liveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return newSessionView(session), nil
}

// SelectVariant performs the one-way unset-to-variant transition. Selecting
// the already-set variant is a no-op; selecting a different one fails. For
// tic-tac-toe the caller may name which role opens the first round; RoleNone
// keeps the session's current starting role, defaulting to role A.
func (that *SessionManager) SelectVariant(ctx context.Context, sessionID string, variant entity.Variant, starter entity.Role) (*entity.Session, error) {
	if variant != entity.VariantTicTacToe && variant != entity.VariantBingo {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownVariant, variant)
	}
	if starter != entity.RoleNone && starter != entity.RoleA && starter != entity.RoleB {
		return nil, fmt.Errorf("%w: starting role %q", apperror.ErrInvalidRole, starter)
	}

	session, err := that.liveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Variant != entity.VariantUnset {
		if session.Variant == variant {
			return session, nil
		}
		return nil, apperror.ErrVariantAlreadySet
	}

	updates := map[string]any{entity.FieldVariant: variant}
	session.Variant = variant

	switch variant {
	case entity.VariantTicTacToe:
		if starter == entity.RoleNone {
			starter = session.StartingRole
		}
		if starter == entity.RoleNone {
			starter = entity.RoleA
		}
		session.StartingRole = starter
		session.Turn = starter
		updates[entity.FieldStartingRole] = starter
		updates[entity.FieldTurn] = starter
	case entity.VariantBingo:
		that.ensureCards(session, updates)
	}

	if err = that.sessions.MergeUpdate(ctx, sessionID, updates); err != nil {
		return nil, fmt.Errorf("failed to set variant: %w", err)
	}

	return session, nil
}

// ensureCards generates a fresh card for every bound role that has none and
// stages the card fields into updates. A card is generated exactly once per
// bind; only the rematch path regenerates existing cards.
func (that *SessionManager) ensureCards(session *entity.Session, updates map[string]any) {
	for _, role := range [2]entity.Role{entity.RoleA, entity.RoleB} {
		if session.Slots[role] == "" || session.Cards[role] != nil {
			continue
		}
		stageCard(session, role, updates)
	}
}

func (that *SessionManager) liveSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	doc, err := that.sessions.Get(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return entity.SessionFromFields(sessionID, doc), nil
}
