package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/delilah-resto/api/internal/logging"
)

// Cache is an advisory read-through cache. A zero Cache (no client) is
// valid: every operation becomes a no-op. Connectivity errors are logged
// and never surface to the request path.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, ttl time.Duration) *Cache {
	if addr == "" {
		return &Cache{ttl: ttl}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.FromContext(ctx).Warn("redis unreachable, cache disabled", "addr", addr, "error", err)
		return &Cache{ttl: ttl}
	}

	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *Cache) SetEx(ctx context.Context, key string, value []byte) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) Del(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache del failed", "key", key, "error", err)
	}
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
