package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey holds the stored overrides document.
const DefaultRedisKey = "outreach:settings"

// Store persists the operator's overrides (not the defaults or env layer).
type Store interface {
	Load(ctx context.Context) (Bag, error)
	Save(ctx context.Context, bag Bag) error
}

// RedisStore keeps the overrides as a single JSON document.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store under key (DefaultRedisKey when empty).
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if client == nil {
		panic("settings: redis client required")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{redis: client, key: key}
}

// Load returns the stored overrides, or an empty bag when nothing is saved.
func (s *RedisStore) Load(ctx context.Context) (Bag, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Bag{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: get: %w", err)
	}
	var bag Bag
	if err := json.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("settings: unmarshal: %w", err)
	}
	if bag == nil {
		bag = Bag{}
	}
	return bag, nil
}

func (s *RedisStore) Save(ctx context.Context, bag Bag) error {
	data, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("settings: set: %w", err)
	}
	return nil
}

// MemoryStore keeps overrides in process memory.
type MemoryStore struct {
	mu  sync.RWMutex
	bag Bag
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bag: Bag{}}
}

func (s *MemoryStore) Load(ctx context.Context) (Bag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bag.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, bag Bag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bag = bag.Clone()
	return nil
}
