package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sealbox/sealbox/pkg/schema"
)

// defaultKeyPrefix namespaces mirror entries in a shared Redis.
const defaultKeyPrefix = "secret:"

// RedisCache implements Cache on a Redis backend. TakeIfPresent relies on
// GETDEL, which Redis executes atomically server-side.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache creates a Redis-backed mirror cache.
// client: Redis client (supports both redis.Client and redis.ClusterClient).
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, keyPrefix: defaultKeyPrefix}
}

func (c *RedisCache) Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return cacheErr("marshal mirror entry", err)
	}
	if err := c.client.SetEx(ctx, c.keyPrefix+key, payload, ttl).Err(); err != nil {
		return cacheErr("setex mirror entry", err)
	}
	return nil
}

func (c *RedisCache) TakeIfPresent(ctx context.Context, key string) (*Entry, error) {
	payload, err := c.client.GetDel(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, cacheErr("getdel mirror entry", err)
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, cacheErr("unmarshal mirror entry", err)
	}
	return &entry, nil
}

func (c *RedisCache) Evict(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return cacheErr("del mirror entry", err)
	}
	return nil
}

func cacheErr(op string, err error) *schema.SealboxError {
	return schema.NewErrorf(schema.ErrCodeCache, "%s: %s", op, err.Error()).WithCause(err)
}
