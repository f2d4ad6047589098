package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/chat"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// PostMessage runs the content gate and appends the message to the
// session's chat log. The payload is plain text or a sticker reference
// depending on kind; the store assigns the id and creation timestamp.
func (that *SessionManager) PostMessage(ctx context.Context, sessionID string, author entity.Identity, kind, payload string) (*entity.ChatMessage, error) {
	if author.ID == "" {
		return nil, apperror.ErrNotParticipant
	}

	var message *entity.ChatMessage
	var err error

	switch kind {
	case entity.MessageKindText:
		message, err = chat.NewTextMessage(author, payload)
	case entity.MessageKindSticker:
		message, err = chat.NewStickerMessage(author, payload)
	default:
		err = fmt.Errorf("%w: unknown kind %q", apperror.ErrInvalidMessage, kind)
	}
	if err != nil {
		return nil, err
	}

	stored, err := that.chat.AppendMessage(ctx, sessionID, message)
	if err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	return stored, nil
}

// Messages lists the session's chat log in creation order.
func (that *SessionManager) Messages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	messages, err := that.chat.Messages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// WatchMessages delivers the full ordered chat log after every append.
func (that *SessionManager) WatchMessages(ctx context.Context, sessionID string) (<-chan []*entity.ChatMessage, func(), error) {
	messages, cancel, err := that.chat.SubscribeMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to watch messages: %w", err)
	}

	return messages, cancel, nil
}
