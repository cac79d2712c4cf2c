package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each value under "<prefix>:<scope>:<key>" without expiry.
type RedisBackend struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisBackend(rdb redis.UniversalClient, prefix string) (*RedisBackend, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "bbbank"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}, nil
}

func (b *RedisBackend) redisKey(scope, key string) string {
	return b.prefix + ":" + scope + ":" + key
}

func (b *RedisBackend) Read(ctx context.Context, scope, key string) ([]byte, error) {
	v, err := b.rdb.Get(ctx, b.redisKey(scope, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (b *RedisBackend) Write(ctx context.Context, scope, key string, value []byte) error {
	if err := b.rdb.Set(ctx, b.redisKey(scope, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, scope, key string) error {
	if err := b.rdb.Del(ctx, b.redisKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
