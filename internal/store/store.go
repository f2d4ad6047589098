package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is a point-in-time copy of a session document: a flat mapping
// of leaf field paths to their encoded values.
type Document map[string]json.RawMessage

// SessionStore abstracts the backing document store. MergeUpdate applies
// only the named field paths and preserves untouched fields verbatim
// regardless of concurrent writers; Create fails if a document already
// exists at the id. Subscribe delivers the current state at least once
// immediately and again after every committed change, in the store's
// commit order for that document.
type SessionStore interface {
	Get(ctx context.Context, id string) (Document, error)
	Create(ctx context.Context, id string, fields map[string]any) error
	MergeUpdate(ctx context.Context, id string, fields map[string]any) error
	Subscribe(ctx context.Context, id string) (<-chan Document, func(), error)
}

// ChatStore is the subordinate chat log: messages are created with a
// store-assigned timestamp, ordered by creation, and never mutated.
type ChatStore interface {
	AppendMessage(ctx context.Context, sessionID string, message *entity.ChatMessage) (*entity.ChatMessage, error)
	Messages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	SubscribeMessages(ctx context.Context, sessionID string) (<-chan []*entity.ChatMessage, func(), error)
}

func encodeFields(fields map[string]any) (map[string]json.RawMessage, error) {
	encoded := make(map[string]json.RawMessage, len(fields))

	for path, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %q: %w", path, err)
		}
		encoded[path] = raw
	}

	return encoded, nil
}
