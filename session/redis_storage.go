package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix is an exported constant or variable used by the
// session store.
const DefaultRedisKeyPrefix = "tmauth:session:"

// RedisStorage defines a public type used by tmauth APIs.
//
// RedisStorage persists the record in Redis under prefix+key. The key should
// be stable per installation (for example the install id or a device key
// chosen by the host application).
type RedisStorage struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStorage describes the new redis storage operation and its
// observable behavior. An empty prefix falls back to DefaultRedisKeyPrefix.
func NewRedisStorage(client redis.UniversalClient, prefix, key string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStorage{client: client, key: prefix + key}
}

func (r *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
