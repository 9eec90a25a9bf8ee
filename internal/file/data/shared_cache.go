package data

import (
	"context"
	"time"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/redis"
)

type sharedCache struct {
	client *redis.Client
}

// NewSharedCache adapts redis to the shared metadata cache interface
func NewSharedCache(client *redis.Client) biz.SharedCache {
	return &sharedCache{client: client}
}

func (c *sharedCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *sharedCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl)
}

func (c *sharedCache) Del(ctx context.Context, key string) error {
	_, err := c.client.Del(ctx, key)
	return err
}
