package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, token string) (*domain.CartView, error) {
	key := cacheKey(token)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var view domain.CartView
	if err2 := json.Unmarshal(data, &view); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart view failed: %w", err2)
	}

	return &view, nil
}

func (r RedisCache) Set(ctx context.Context, token string, view *domain.CartView) error {
	key := cacheKey(token)
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal cart view failed: %w", err)
	}

	// jitter spreads expiry so a burst of sessions doesn't expire at once
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if errSet := r.client.Set(ctx, key, string(data), ttl).Err(); errSet != nil {
		return fmt.Errorf("redis set failed: %w", errSet)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, token string) error {
	key := cacheKey(token)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(token string) string {
	return fmt.Sprintf("cartview:%s", token)
}
