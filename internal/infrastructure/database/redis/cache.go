package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

const snapshotKey = "catalog:snapshot"

// kv is the slice of the Redis client the cache needs.  *Client satisfies it.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SnapshotCache decorates a catalog.Provider with a Redis-backed snapshot
// cache.  Cache failures degrade to the inner provider; they are never
// surfaced to the caller.  Concurrent cold loads collapse into one through
// singleflight.
type SnapshotCache struct {
	inner  catalog.Provider
	client kv
	prefix string
	ttl    time.Duration
	logger logging.Logger
	sf     singleflight.Group
}

// NewSnapshotCache wraps a provider.  A zero ttl defaults to five minutes.
func NewSnapshotCache(inner catalog.Provider, client kv, prefix string, ttl time.Duration, log logging.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "figlens:"
	}
	return &SnapshotCache{
		inner:  inner,
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: log.Named("catalog.cache"),
	}
}

// Snapshot returns the cached catalog, loading and caching it on a miss.
func (c *SnapshotCache) Snapshot(ctx context.Context) ([]catalog.Entry, error) {
	key := c.prefix + snapshotKey

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var entries []catalog.Entry
		if jerr := json.Unmarshal(raw, &entries); jerr == nil {
			return entries, nil
		}
		// A corrupt document is dropped and reloaded from source.
		c.logger.Warn("Discarding corrupt cached snapshot", logging.String("key", key))
		c.client.Del(ctx, key)
	} else if !stderrors.Is(err, redis.Nil) {
		c.logger.Warn("Snapshot cache read failed, loading from source", logging.Err(err))
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		entries, err := c.inner.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if raw, jerr := json.Marshal(entries); jerr == nil {
			if serr := c.client.Set(ctx, key, raw, c.ttl).Err(); serr != nil {
				c.logger.Warn("Snapshot cache write failed", logging.Err(serr))
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Entry), nil
}

// Get serves an entry from the cached snapshot when possible, falling back to
// the inner provider.
func (c *SnapshotCache) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	entries, err := c.Snapshot(ctx)
	if err != nil {
		return c.inner.Get(ctx, id)
	}
	for i := range entries {
		if entries[i].ID == id {
			e := entries[i]
			return &e, nil
		}
	}
	return c.inner.Get(ctx, id)
}

// Search filters the cached snapshot.
func (c *SnapshotCache) Search(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	entries, err := c.Snapshot(ctx)
	if err != nil {
		return c.inner.Search(ctx, f)
	}
	var out []catalog.Entry
	for i := range entries {
		if f.Matches(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

// Invalidate drops the cached snapshot so the next load hits the source.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.prefix+snapshotKey).Err()
}
