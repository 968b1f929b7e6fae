package secure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "cache:"
	cacheTagPrefix = "cachetag:"
)

// Cache is a keyed, time-based cache with tag-based manual invalidation,
// backed by redis. Values are stored as JSON.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get loads the value stored under key into dest. The boolean reports a
// cache hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("secure: cache get: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("secure: cache decode: %w", err)
	}
	return true, nil
}

// Set stores value under key with the given ttl and associates it with
// the tags for later invalidation.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("secure: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("secure: cache set: %w", err)
	}
	for _, tag := range tags {
		tagKey := cacheTagPrefix + tag
		if err := c.client.SAdd(ctx, tagKey, key).Err(); err != nil {
			return fmt.Errorf("secure: cache tag: %w", err)
		}
		// Tags outlive their members slightly so invalidation still finds
		// expired keys.
		c.client.Expire(ctx, tagKey, ttl+time.Minute)
	}
	return nil
}

// InvalidateTag drops every key associated with the tag.
func (c *Cache) InvalidateTag(ctx context.Context, tag string) error {
	tagKey := cacheTagPrefix + tag
	members, err := c.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("secure: cache members: %w", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		keys = append(keys, cacheKeyPrefix+member)
	}
	keys = append(keys, tagKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("secure: cache invalidate: %w", err)
	}
	return nil
}
