package tilecache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is an alternative tile store backend shared between
// viewer instances. Eviction and TTL are delegated to the Redis
// server, so LRU accounting lives only in the in-process backend.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

var _ Store = (*RedisStore)(nil)

func (c *RedisStore) Get(k Key) ([]byte, bool, error) {
	ctx := context.Background()

	data, err := c.client.Get(ctx, k.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	return data, true, nil
}

func (c *RedisStore) Set(k Key, v []byte) error {
	ctx := context.Background()

	if err := c.client.Set(ctx, k.String(), v, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

func (c *RedisStore) Delete(k Key) (bool, error) {
	ctx := context.Background()

	n, err := c.client.Del(ctx, k.String()).Result()
	if err != nil {
		return false, fmt.Errorf("redis del error: %w", err)
	}
	return n > 0, nil
}

func (c *RedisStore) DeleteLayer(layerID string) error {
	ctx := context.Background()
	pattern := fmt.Sprintf("tile:%s:*", layerID)

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del error: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan error: %w", err)
	}
	return nil
}

func (c *RedisStore) Clear() error {
	ctx := context.Background()

	iter := c.client.Scan(ctx, 0, "tile:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del error: %w", err)
		}
	}
	return iter.Err()
}

func (c *RedisStore) Close() error {
	return c.client.Close()
}
