package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"kemdeholo/internal/adapters/observability"
)

// DefaultPrefix namespaces every key the site caches, so a shared Redis can
// be flushed per application and the signal marker never collides.
const DefaultPrefix = "kemdeholo:cache:"

// Cache stores JSON snapshots of read results. Entries always expire: a
// write without a positive TTL is dropped rather than kept forever.
type Cache struct {
	c      *redis.Client
	prefix string
}

type Option func(*Cache)

func WithPrefix(p string) Option { return func(c *Cache) { c.prefix = p } }

func NewClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

func New(c *redis.Client, opts ...Option) *Cache {
	rc := &Cache{c: c, prefix: DefaultPrefix}
	for _, o := range opts {
		o(rc)
	}
	return rc
}

// Key is the Redis key a cache key is stored under.
func (r *Cache) Key(key string) string { return r.prefix + key }

// Get reports a miss for absent keys and for entries that no longer decode
// into dst; the latter are removed so the next read refills them.
func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		observability.ObserveCache("redis", "corrupt")
		log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		_ = r.c.Del(ctx, r.Key(key)).Err()
		return false, nil
	}
	observability.ObserveCache("redis", "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if ttlSec <= 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, r.Key(key), b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, r.Key(key)).Err()
}
