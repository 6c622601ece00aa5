package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps sessions as plain string keys with a PX expiry.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore returns a Store keeping sessions in client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(subject string) string {
	return keyPrefix + subject
}

// Put makes token the only session of subject for ttl. It is a single SET
// with PX, so concurrent logins resolve to whichever write lands last.
func (s *RedisStore) Put(ctx context.Context, subject, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	if err := s.client.Set(ctx, sessionKey(subject), token, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, subject string) (string, error) {
	token, err := s.client.Get(ctx, sessionKey(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrNoSession
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Delete(ctx context.Context, subject string) error {
	if err := s.client.Del(ctx, sessionKey(subject)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
