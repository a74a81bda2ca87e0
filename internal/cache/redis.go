package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"SignalScanner/internal/model"
)

// RedisStore keeps cached candles in Redis with native key expiry.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]model.Candle, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []model.Candle
	if err := json.Unmarshal(b, &out); err != nil {
		// Delete corrupted cache entry
		_ = r.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return out, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, candles []model.Candle, ttl time.Duration) error {
	b, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("marshal candles: %w", err)
	}
	return r.rdb.Set(ctx, key, b, ttl).Err()
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
