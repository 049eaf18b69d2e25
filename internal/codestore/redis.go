package codestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCmdable is the subset of redis.Cmdable the store uses.
type redisCmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// Redis stores codes in Redis. GETDEL is a single command, so redemption is
// atomic across every server instance sharing the Redis.
type Redis struct {
	client redisCmdable
}

// NewRedis wraps a go-redis client (or cluster/ring client).
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Set issues SET key value EX ttl.
func (s *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis codestore: set failed: %w", err)
	}
	return nil
}

// GetAndDelete issues GETDEL key.
func (s *Redis) GetAndDelete(ctx context.Context, key string) (string, error) {
	v, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMissing
	}
	if err != nil {
		return "", fmt.Errorf("redis codestore: getdel failed: %w", err)
	}
	return v, nil
}
