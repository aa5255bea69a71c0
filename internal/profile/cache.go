package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores profiles by owner. Get returns ErrCacheMiss when absent.
type Cache interface {
	Get(ctx context.Context, ownerID string) (*Profile, error)
	Set(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, ownerID string) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(ownerID string) string {
	return "profile:" + ownerID
}

func (c *RedisCache) Get(ctx context.Context, ownerID string) (*Profile, error) {
	raw, err := c.client.Get(ctx, cacheKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile cache: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(p.OwnerID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write profile cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, ownerID string) error {
	if err := c.client.Del(ctx, cacheKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to evict profile cache: %w", err)
	}
	return nil
}
