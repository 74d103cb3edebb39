package cooldown

import (
	"context"
	"errors"
	"time"

	"elapor/pkg/redis"
)

const keyPrefix = "cooldown:"

// Store persisted key/value state holding one invitation timestamp per user
type Store interface {
	// Get returns the stored value and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value, kept for the given number of days
	Set(ctx context.Context, key, value string, days int) error
	Delete(ctx context.Context, key string) error
}

// kvStore Store over the shared redis key/value surface
type kvStore struct {
	kv redis.Store
}

// NewStore creates a Store namespaced under "cooldown:"
func NewStore(kv redis.Store) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.kv.Get(ctx, keyPrefix+key)
	if errors.Is(err, redis.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *kvStore) Set(ctx context.Context, key, value string, days int) error {
	var ttl time.Duration
	if days > 0 {
		ttl = time.Duration(days) * 24 * time.Hour
	}
	return s.kv.Set(ctx, keyPrefix+key, value, ttl)
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	return s.kv.Del(ctx, keyPrefix+key)
}
