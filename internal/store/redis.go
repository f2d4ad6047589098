package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

const (
	sessionKeyPrefix = "session:"
	chatKeyPrefix    = "chat:"
	eventsSuffix     = ":events"

	createdGuardField = "createdAt"

	snapshotBuffer = 16
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return conn, nil
}

// RedisStore keeps each session document as a Redis hash keyed by field
// path, so a merge update is a plain HSET over the named paths and two
// writers touching disjoint paths never clobber each other. Commits are
// announced on a per-session pub/sub channel; subscribers re-read the
// hash on every announcement.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

func (that *RedisStore) Get(ctx context.Context, id string) (Document, error) {
	values, err := that.client.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrNotFound
	}

	doc := make(Document, len(values))
	for path, value := range values {
		doc[path] = json.RawMessage(value)
	}

	return doc, nil
}

func (that *RedisStore) Create(ctx context.Context, id string, fields map[string]any) error {
	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}

	guard, ok := encoded[createdGuardField]
	if !ok {
		if guard, err = json.Marshal(time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to marshal creation time: %w", err)
		}
	}

	key := sessionKeyPrefix + id

	// HSETNX on the creation field is the create guard: the first writer
	// wins and every later Create observes an existing document.
	created, err := that.client.HSetNX(ctx, key, createdGuardField, string(guard)).Result()
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if !created {
		return ErrAlreadyExists
	}

	delete(encoded, createdGuardField)
	if len(encoded) > 0 {
		if err = that.client.HSet(ctx, key, flatten(encoded)...).Err(); err != nil {
			return fmt.Errorf("failed to write initial fields: %w", err)
		}
	}

	return that.announce(ctx, key)
}

func (that *RedisStore) MergeUpdate(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}

	key := sessionKeyPrefix + id
	if err = that.client.HSet(ctx, key, flatten(encoded)...).Err(); err != nil {
		return fmt.Errorf("failed to merge fields: %w", err)
	}

	return that.announce(ctx, key)
}

func (that *RedisStore) Subscribe(ctx context.Context, id string) (<-chan Document, func(), error) {
	sub := that.client.Subscribe(ctx, sessionKeyPrefix+id+eventsSuffix)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Document, snapshotBuffer)

	go func() {
		defer close(out)

		that.deliverSnapshot(ctx, id, out)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Channel():
				if !ok {
					return
				}
				that.deliverSnapshot(ctx, id, out)
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}

	return out, cancel, nil
}

func (that *RedisStore) AppendMessage(ctx context.Context, sessionID string, message *entity.ChatMessage) (*entity.ChatMessage, error) {
	stored := *message
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	raw, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	key := chatKeyPrefix + sessionID
	if err = that.client.RPush(ctx, key, raw).Err(); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	if err = that.announce(ctx, key); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (that *RedisStore) Messages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	values, err := that.client.LRange(ctx, chatKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]*entity.ChatMessage, 0, len(values))
	for _, value := range values {
		var message entity.ChatMessage
		if err = json.Unmarshal([]byte(value), &message); err != nil {
			continue
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (that *RedisStore) SubscribeMessages(ctx context.Context, sessionID string) (<-chan []*entity.ChatMessage, func(), error) {
	sub := that.client.Subscribe(ctx, chatKeyPrefix+sessionID+eventsSuffix)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan []*entity.ChatMessage, snapshotBuffer)

	go func() {
		defer close(out)

		that.deliverMessages(ctx, sessionID, out)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Channel():
				if !ok {
					return
				}
				that.deliverMessages(ctx, sessionID, out)
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}

	return out, cancel, nil
}

func (that *RedisStore) announce(ctx context.Context, key string) error {
	if err := that.client.Publish(ctx, key+eventsSuffix, "1").Err(); err != nil {
		return fmt.Errorf("failed to announce commit: %w", err)
	}
	return nil
}

func (that *RedisStore) deliverSnapshot(ctx context.Context, id string, out chan<- Document) {
	doc, err := that.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		doc = Document{}
	} else if err != nil {
		return
	}

	select {
	case out <- doc:
	case <-ctx.Done():
	}
}

func (that *RedisStore) deliverMessages(ctx context.Context, sessionID string, out chan<- []*entity.ChatMessage) {
	messages, err := that.Messages(ctx, sessionID)
	if err != nil {
		return
	}

	select {
	case out <- messages:
	case <-ctx.Done():
	}
}

func flatten(encoded map[string]json.RawMessage) []any {
	pairs := make([]any, 0, len(encoded)*2)
	for path, value := range encoded {
		pairs = append(pairs, path, string(value))
	}
	return pairs
}
