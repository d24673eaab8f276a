package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Carlos-mc14/elhtcrls-sub000/internal/port"
)

// Every call is bounded so an unreachable store degrades the calling feature
// instead of hanging a request.
const opTimeout = 2 * time.Second

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", port.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisAdapter) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisAdapter) AddToSet(ctx context.Context, setKey, member string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.SAdd(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("redis sadd %s: %w", setKey, err)
	}
	return nil
}

func (r *RedisAdapter) RemoveFromSet(ctx context.Context, setKey, member string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.SRem(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("redis srem %s: %w", setKey, err)
	}
	return nil
}

func (r *RedisAdapter) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", setKey, err)
	}
	return members, nil
}

// Keys uses KEYS rather than SCAN: reservation key cardinality is bounded by
// active carts, which stays small at storefront scale.
func (r *RedisAdapter) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys %s: %w", pattern, err)
	}
	return keys, nil
}
