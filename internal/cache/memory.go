package cache

import (
	"context"
	"time"

	shardedcache "github.com/simp-lee/cache"
)

const (
	memoryShards    = 16
	memoryCleanup   = time.Minute
	smallCacheLimit = 256
)

// Memory is an in-process Store on top of a sharded TTL cache. When a shard
// is full its oldest entry is evicted.
type Memory struct {
	c shardedcache.CacheInterface
}

// NewMemory returns a Memory store holding about maxSize entries; maxSize <= 0
// means unbounded. The size limit is enforced per shard, so small limits use
// a single shard to stay exact.
func NewMemory(maxSize int) *Memory {
	opts := shardedcache.Options{
		CleanupInterval: memoryCleanup,
		ShardCount:      memoryShards,
	}
	if maxSize > 0 {
		if maxSize < smallCacheLimit {
			opts.ShardCount = 1
		}
		opts.MaxSize = (maxSize + opts.ShardCount - 1) / opts.ShardCount
	}
	return &Memory{c: shardedcache.NewCache(opts)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Set stores value for ttl. A non-positive ttl stores nothing, since the
// underlying cache would keep such entries forever.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.c.SetWithExpiration(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len returns the number of stored entries, expired ones not yet swept included.
func (m *Memory) Len() int {
	return m.c.Count()
}

// Close stops the background cleanup.
func (m *Memory) Close() error {
	m.c.Close()
	return nil
}
