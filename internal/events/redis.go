package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL bounds how long a processed id is remembered in Redis.
const DefaultRedisTTL = 48 * time.Hour

// RedisStore dedupes with SET NX on a prefixed key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("events: redis client required")
	}
	if prefix == "" {
		prefix = "outreach:processed"
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(provider, eventID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, provider, eventID)
}

func (s *RedisStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(provider, eventID), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ok, nil
}
