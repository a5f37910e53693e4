package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markethub/backend/internal/infrastructure/config"
)

const defaultScanBatchSize = 100

// RedisQueryCache stores serialized query results under namespaced keys with
// per-entry TTLs. The analytics and search services use it to keep their
// aggregate and result payloads hot for a few minutes; callers serialize
// before Set and a miss comes back as a nil payload, not an error.
type RedisQueryCache struct {
	client     *redis.Client
	ownsClient bool
}

// NewRedisQueryCache connects to Redis using the cache settings.
func NewRedisQueryCache(cfg config.RedisConfig) (*RedisQueryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisQueryCache{client: client, ownsClient: true}, nil
}

// NewRedisQueryCacheWithClient wraps an existing client, sharing the
// connection pool with the rest of the cache layer. The caller keeps
// ownership of the client.
func NewRedisQueryCacheWithClient(client *redis.Client) *RedisQueryCache {
	return &RedisQueryCache{client: client}
}

// Get returns the cached payload for the key, or nil on a miss
func (c *RedisQueryCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cache get: %w", err)
	}
	return data, nil
}

// Set stores the payload under the key for the given TTL. A non-positive
// TTL skips caching rather than storing an entry that never expires.
func (c *RedisQueryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("query cache set: %w", err)
	}
	return nil
}

// Delete removes a single cached entry
func (c *RedisQueryCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("query cache delete: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with the prefix, scanning
// in batches so a large invalidation never blocks Redis.
func (c *RedisQueryCache) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("query cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("query cache delete: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the Redis connection when this cache owns it
func (c *RedisQueryCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// InMemoryQueryCache is a process-local twin of RedisQueryCache for tests
// and single-node development. Expired entries are dropped lazily on read.
type InMemoryQueryCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryQueryEntry
}

type inMemoryQueryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewInMemoryQueryCache creates an empty in-memory query cache
func NewInMemoryQueryCache() *InMemoryQueryCache {
	return &InMemoryQueryCache{entries: make(map[string]inMemoryQueryEntry)}
}

// Get returns the cached payload for the key, or nil on a miss
func (c *InMemoryQueryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.payload, nil
}

// Set stores the payload under the key for the given TTL
func (c *InMemoryQueryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[key] = inMemoryQueryEntry{payload: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a single cached entry
func (c *InMemoryQueryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries, counting expired ones not yet
// collected. Used by tests.
func (c *InMemoryQueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
