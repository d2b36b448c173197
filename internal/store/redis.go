package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultOpTimeout bounds a single backend round trip so one unreachable
// backend cannot stall many concurrent requests.
const DefaultOpTimeout = 3 * time.Second

// RedisKV implements KV on go-redis.
type RedisKV struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedisKV wraps an existing client. A non-positive timeout falls back to
// DefaultOpTimeout.
func NewRedisKV(client *redis.Client, opTimeout time.Duration) *RedisKV {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &RedisKV{client: client, opTimeout: opTimeout}
}

func (r *RedisKV) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get", err)
	}
	return val, nil
}

func (r *RedisKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (r *RedisKV) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, unavailable("setnx", err)
	}
	return ok, nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

func (r *RedisKV) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

func (r *RedisKV) IncrementField(ctx context.Context, key, field string, delta int64) (int64, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	val, err := r.client.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, unavailable("hincrby", err)
	}
	return val, nil
}

func (r *RedisKV) Fields(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable("hgetall", err)
	}
	return fields, nil
}

func (r *RedisKV) ExpireIn(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return unavailable("expire", err)
	}
	return nil
}

func (r *RedisKV) Ping(ctx context.Context) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
