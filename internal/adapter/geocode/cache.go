package geocode

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache stores raw geocoding responses. Implementations swallow their own
// failures: a broken cache degrades to a miss, never to a failed lookup.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// MemoryCache is a process-local LRU cache with a per-entry TTL.
type MemoryCache struct {
	lru *lru.Cache
	ttl time.Duration
	now func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns a cache holding at most size entries, each valid
// for ttl (forever when ttl is 0).
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "geocode cache")
	}
	return &MemoryCache{lru: c, ttl: ttl, now: time.Now}, nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(memoryEntry)
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	e := memoryEntry{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.lru.Add(key, e)
}

// Len reports the number of entries, expired ones included.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// RedisCache shares responses between processes through Redis.
type RedisCache struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

// NewRedisCache connects to addr lazily; go-redis dials on first use.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		Client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		Prefix: "foxfire:geocode:",
		TTL:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("geocode cache get")
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.Client.Set(ctx, c.Prefix+key, value, c.TTL).Err(); err != nil {
		log.Warn().Err(err).Msg("geocode cache set")
	}
}
