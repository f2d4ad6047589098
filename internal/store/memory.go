package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// MemoryStore satisfies the same contract as RedisStore with an in-process
// map and per-subscriber channels. Used by unit tests and single-node runs.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]Document
	messages map[string][]*entity.ChatMessage

	docSubs  map[string][]chan Document
	chatSubs map[string][]chan []*entity.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]Document),
		messages: make(map[string][]*entity.ChatMessage),
		docSubs:  make(map[string][]chan Document),
		chatSubs: make(map[string][]chan []*entity.ChatMessage),
	}
}

func (that *MemoryStore) Get(_ context.Context, id string) (Document, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	doc, ok := that.docs[id]
	if !ok {
		return nil, ErrNotFound
	}

	return copyDocument(doc), nil
}

func (that *MemoryStore) Create(_ context.Context, id string, fields map[string]any) error {
	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.docs[id]; ok {
		return ErrAlreadyExists
	}

	that.docs[id] = encoded
	that.notifyLocked(id)

	return nil
}

func (that *MemoryStore) MergeUpdate(_ context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	doc, ok := that.docs[id]
	if !ok {
		doc = make(Document, len(encoded))
		that.docs[id] = doc
	}

	for path, value := range encoded {
		doc[path] = value
	}

	that.notifyLocked(id)

	return nil
}

func (that *MemoryStore) Subscribe(_ context.Context, id string) (<-chan Document, func(), error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	ch := make(chan Document, snapshotBuffer)
	that.docSubs[id] = append(that.docSubs[id], ch)

	if doc, ok := that.docs[id]; ok {
		ch <- copyDocument(doc)
	} else {
		ch <- Document{}
	}

	cancel := func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		subs := that.docSubs[id]
		for i, sub := range subs {
			if sub == ch {
				that.docSubs[id] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}

	return ch, cancel, nil
}

func (that *MemoryStore) AppendMessage(_ context.Context, sessionID string, message *entity.ChatMessage) (*entity.ChatMessage, error) {
	stored := *message
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages[sessionID] = append(that.messages[sessionID], &stored)
	that.notifyChatLocked(sessionID)

	return &stored, nil
}

func (that *MemoryStore) Messages(_ context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return copyMessages(that.messages[sessionID]), nil
}

func (that *MemoryStore) SubscribeMessages(_ context.Context, sessionID string) (<-chan []*entity.ChatMessage, func(), error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	ch := make(chan []*entity.ChatMessage, snapshotBuffer)
	that.chatSubs[sessionID] = append(that.chatSubs[sessionID], ch)

	ch <- copyMessages(that.messages[sessionID])

	cancel := func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		subs := that.chatSubs[sessionID]
		for i, sub := range subs {
			if sub == ch {
				that.chatSubs[sessionID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}

	return ch, cancel, nil
}

// notifyLocked delivers the committed snapshot to every subscriber. A slow
// subscriber loses its oldest pending snapshot rather than blocking the
// writer; the local display policy is last-snapshot-wins anyway.
func (that *MemoryStore) notifyLocked(id string) {
	doc := that.docs[id]
	for _, ch := range that.docSubs[id] {
		snapshot := copyDocument(doc)
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (that *MemoryStore) notifyChatLocked(sessionID string) {
	messages := that.messages[sessionID]
	for _, ch := range that.chatSubs[sessionID] {
		snapshot := copyMessages(messages)
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func copyDocument(doc Document) Document {
	clone := make(Document, len(doc))
	for path, value := range doc {
		clone[path] = value
	}
	return clone
}

func copyMessages(messages []*entity.ChatMessage) []*entity.ChatMessage {
	clone := make([]*entity.ChatMessage, len(messages))
	copy(clone, messages)
	return clone
}
