package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crmline/intakebot/internal/domain"
)

// RedisStore keeps JSON-encoded sessions in Redis with a TTL, one key per
// identity.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	locks  *keyedMutex
}

// NewRedis builds a store over an already connected client.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		locks:  newKeyedMutex(),
	}
}

func (s *RedisStore) key(telegramID int64) string {
	return s.prefix + strconv.FormatInt(telegramID, 10)
}

func (s *RedisStore) Get(ctx context.Context, identity domain.Identity) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(identity.TelegramID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewSession(identity), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("session get: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt value must not wedge the conversation.
		return domain.NewSession(identity), nil
	}
	// Keep the freshest identity details from the transport layer.
	sess.Identity = identity
	return sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.Identity.TelegramID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, telegramID int64) error {
	if err := s.client.Del(ctx, s.key(telegramID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (s *RedisStore) Lock(telegramID int64) func() {
	return s.locks.Lock(telegramID)
}
