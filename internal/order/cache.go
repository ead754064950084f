package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const menuCacheKey = "order:menu"

// MenuCache caches the public menu in Redis. Cold-cache reads collapse
// into a single loader call via singleflight; menu writes bump the cache.
type MenuCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewMenuCache constructs a MenuCache. A nil client disables caching.
func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	return &MenuCache{client: client, ttl: ttl}
}

// Fetch returns the cached menu, populating it through loader on a miss.
func (c *MenuCache) Fetch(ctx context.Context, loader func(context.Context) ([]MenuItem, error)) ([]MenuItem, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, menuCacheKey).Bytes()
	if err == nil {
		var items []MenuItem
		if err := json.Unmarshal(payload, &items); err == nil {
			return items, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Cache unavailable; serve from the store rather than failing.
		return loader(ctx)
	}

	result, err, _ := c.group.Do(menuCacheKey, func() (any, error) {
		items, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, menuCacheKey, raw, c.ttl).Err(); err != nil {
			return items, nil
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]MenuItem), nil
}

// Bump invalidates the cached menu.
func (c *MenuCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, menuCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
