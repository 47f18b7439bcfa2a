package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// errCacheMiss is internal; callers of the service never see cache state.
var errCacheMiss = errors.New("cep cache miss")

// Cache stores lookup results keyed by normalized CEP.
type Cache interface {
	Get(ctx context.Context, cep string) (*Data, error)
	Set(ctx context.Context, cep string, data *Data) error
}

// RedisCache caches ViaCEP responses in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(cep string) string {
	return fmt.Sprintf("cep:%s", cep)
}

// Get returns the cached lookup for a CEP, or errCacheMiss.
func (c *RedisCache) Get(ctx context.Context, cep string) (*Data, error) {
	raw, err := c.client.Get(ctx, cacheKey(cep)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errCacheMiss
		}
		return nil, fmt.Errorf("failed to read cep cache: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to decode cached cep: %w", err)
	}

	return &data, nil
}

// Set stores a lookup result with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, cep string, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cep for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(cep), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cep cache: %w", err)
	}

	return nil
}
