package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through redis cache. A nil *Cache is valid and always loads from source.
type Cache struct {
	RDB    *redis.Client
	TTL    time.Duration
	Prefix string
	// Invalidate deletes again after RecheckDelay to drop values other processes
	// loaded before the write committed. Zero disables the second delete.
	RecheckDelay time.Duration
	sf           singleflight.Group
	// epoch moves on every invalidation; a load that spans one is not stored
	epoch atomic.Uint64
}

func New(addr, pass string, db int, ttl time.Duration) *Cache {
	return &Cache{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		TTL:          ttl,
		Prefix:       defaultPrefix,
		RecheckDelay: defaultRecheckDelay,
	}
}

const defaultRecheckDelay = 500 * time.Millisecond

const defaultPrefix = "library:"

func (c *Cache) Key(parts ...string) string {
	k := defaultPrefix
	if c != nil {
		k = c.Prefix
	}
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// concurrent misses for one key share a single load
	v, err, _ := c.sf.Do(key, func() (any, error) {
		epoch := c.epoch.Load()
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		c.storeIfFresh(ctx, key, b, ttl, epoch)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) DefaultTTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.TTL
}

// storeIfFresh writes b unless an invalidation ran since the load began.
func (c *Cache) storeIfFresh(ctx context.Context, key string, b []byte, ttl time.Duration, epoch uint64) bool {
	if c.epoch.Load() != epoch {
		return false
	}
	_ = c.RDB.Set(ctx, key, b, ttl).Err()
	return true
}

// Invalidate drops keys after a write and schedules a second delete after
// RecheckDelay. Failures are returned for logging only.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	c.epoch.Add(1)
	if c.RecheckDelay > 0 {
		later := context.WithoutCancel(ctx)
		time.AfterFunc(c.RecheckDelay, func() {
			c.epoch.Add(1)
			_ = c.RDB.Del(later, keys...).Err()
		})
	}
	return c.RDB.Del(ctx, keys...).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.RDB.Close()
}
