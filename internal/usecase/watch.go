package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// SessionView is the normalized, display-ready projection of a snapshot:
// the session record, the derived state-machine position and per-role win
// counts resolved through the identity-keyed ledger.
type SessionView struct {
	Session *entity.Session     `json:"session"`
	State   string              `json:"state"`
	Wins    map[entity.Role]int `json:"wins"`
}

func newSessionView(session *entity.Session) *SessionView {
	return &SessionView{
		Session: session,
		State:   session.State(),
		Wins: map[entity.Role]int{
			entity.RoleA: session.Wins(entity.RoleA),
			entity.RoleB: session.Wins(entity.RoleB),
		},
	}
}

// Watch subscribes to the session's change feed and folds every delivered
// snapshot into a view. The locally rendered state is always replaced by
// the latest snapshot received, never speculatively merged with
// unacknowledged local writes: a snapshot that is behind a local write
// shows as a brief reversion until the write's own echo arrives. Cancel by
// calling the returned function or cancelling the context.
func (that *SessionManager) Watch(ctx context.Context, sessionID string) (<-chan *SessionView, func(), error) {
	docs, cancel, err := that.sessions.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to watch session: %w", err)
	}

	out := make(chan *SessionView, 1)

	go func() {
		defer close(out)

		for doc := range docs {
			view := newSessionView(entity.SessionFromFields(sessionID, doc))
			select {
			case out <- view:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}
