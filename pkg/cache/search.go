// Package cache holds the optional Redis cache for availability searches.
package cache

import (
	"canchas/pkg/conflict"
	"canchas/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	searchKeyPrefix = "canchas:search"

	scanBatch = 100
)

var ErrMiss = errors.New("cache miss")

// Store is the byte level backend of the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// DeletePrefix walks the keyspace with SCAN so Redis is never blocked by KEYS.
func (s *redisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	return int(deleted), err
}

// SearchCache caches search results per interval. A nil *SearchCache is valid
// and never hits, which is how the service runs without Redis. Entries may
// lag bookings by up to the TTL.
type SearchCache struct {
	store Store
	ttl   time.Duration
	log   *logger.Logger
}

// NewSearchCache returns nil when client is nil.
func NewSearchCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *SearchCache {
	if client == nil {
		return nil
	}
	return NewSearchCacheWithStore(&redisStore{client: client}, ttl, log)
}

func NewSearchCacheWithStore(store Store, ttl time.Duration, log *logger.Logger) *SearchCache {
	return &SearchCache{store: store, ttl: ttl, log: log}
}

func SearchKey(interval conflict.Interval) string {
	return fmt.Sprintf("%s:%d:%d", searchKeyPrefix, interval.Start.UTC().Unix(), interval.End.UTC().Unix())
}

// Get decodes the cached result for interval into dest and reports a hit.
// Backend failures are logged and treated as a miss.
func (c *SearchCache) Get(ctx context.Context, interval conflict.Interval, dest any) bool {
	if c == nil {
		return false
	}

	key := SearchKey(interval)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("search cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("search cache entry is corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *SearchCache) Set(ctx context.Context, interval conflict.Interval, value any) {
	if c == nil {
		return
	}

	key := SearchKey(interval)
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("search cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("search cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached search result. Bookings and catalog changes
// can affect any interval, so no entry is kept.
func (c *SearchCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	deleted, err := c.store.DeletePrefix(ctx, searchKeyPrefix+":")
	if err != nil {
		c.log.Warn("search cache invalidation failed", "error", err)
		return
	}
	c.log.Debug("search cache invalidated", "entries", deleted)
}
