package cache

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultTTL is used when neither the cache nor the caller specify one.
const DefaultTTL = 5 * time.Minute

// Entry is the unit stored in a Backend.
type Entry struct {
	Value     any
	ExpiresAt time.Time

	// Prefix and Generation are set by PutStamped. An entry with an empty
	// Prefix is never rejected on generation grounds.
	Prefix     string
	Generation uint64
}

// Backend stores entries by key. Implementations must be safe for
// concurrent use.
type Backend interface {
	Load(key string) (Entry, bool)
	Store(key string, e Entry)
	Delete(key string)
	Keys() []string
}

// Stamp records a prefix generation observed before reading from the source
// of truth.
type Stamp struct {
	prefix     string
	generation uint64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Cache is a typed view over a Backend.
//
// Prefix generations are drawn from one monotonic clock. A prefix without an
// entry in generations reads as floor, which Prune only ever raises, so a
// prefix's generation never returns to a value it had before an
// invalidation.
type Cache[V any] struct {
	backend     Backend
	ttl         time.Duration
	now         func() time.Time
	logger      *slog.Logger
	generations *xsync.MapOf[string, uint64]
	clock       atomic.Uint64
	floor       atomic.Uint64
}

// New creates a cache over backend. A non-positive ttl falls back to
// DefaultTTL.
func New[V any](backend Backend, ttl time.Duration, opts ...Option) *Cache[V] {
	if backend == nil {
		panic("backend cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		backend:     backend,
		ttl:         ttl,
		now:         o.now,
		logger:      o.logger.With(slog.String("component", "cache")),
		generations: xsync.NewMapOf[string, uint64](),
	}
}

// TTL returns the default time-to-live of the cache.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key. Missing, expired and
// stale-generation entries are all misses; the latter two are removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	e, ok := c.backend.Load(key)
	if !ok {
		return zero, false
	}

	if !c.now().Before(e.ExpiresAt) {
		c.backend.Delete(key)
		c.logger.Debug("cache entry expired", slog.String("key", key))
		return zero, false
	}

	if e.Prefix != "" && e.Generation != c.generation(e.Prefix) {
		c.backend.Delete(key)
		c.logger.Debug("cache entry predates invalidation", slog.String("key", key))
		return zero, false
	}

	v, ok := e.Value.(V)
	if !ok {
		c.backend.Delete(key)
		return zero, false
	}
	return v, true
}

// Put stores value under key for ttl, replacing any existing entry. A
// non-positive ttl uses the cache default.
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) {
	c.backend.Store(key, Entry{Value: value, ExpiresAt: c.expiry(ttl)})
}

// Snapshot captures the current generation of prefix. Take it before reading
// the data that will be cached with PutStamped.
func (c *Cache[V]) Snapshot(prefix string) Stamp {
	return Stamp{prefix: prefix, generation: c.generation(prefix)}
}

// PutStamped stores value like Put, unless prefix has been invalidated since
// stamp was taken. It reports whether the value was stored.
func (c *Cache[V]) PutStamped(stamp Stamp, key string, value V, ttl time.Duration) bool {
	if stamp.prefix == "" {
		c.Put(key, value, ttl)
		return true
	}
	if c.generation(stamp.prefix) != stamp.generation {
		c.logger.Debug("skipping stale cache write", slog.String("key", key))
		return false
	}
	c.backend.Store(key, Entry{
		Value:      value,
		ExpiresAt:  c.expiry(ttl),
		Prefix:     stamp.prefix,
		Generation: stamp.generation,
	})
	return true
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed. Writes stamped before the call are rejected
// afterwards, even if they land later.
func (c *Cache[V]) InvalidatePrefix(prefix string) int {
	c.generations.Store(prefix, c.clock.Add(1))

	removed := 0
	for _, key := range c.backend.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.backend.Delete(key)
			removed++
		}
	}

	c.logger.Debug("cache prefix invalidated",
		slog.String("prefix", prefix),
		slog.Int("removed", removed))
	return removed
}

// Prune removes expired entries and forgets the generations of prefixes
// that no longer hold any entry. It returns the number of entries removed.
// Reads in flight while Prune runs may lose their cache write; they never
// store a stale value.
func (c *Cache[V]) Prune() int {
	now := c.now()
	floor := c.floor.Load()

	removed := 0
	live := make(map[string]struct{})
	for _, key := range c.backend.Keys() {
		e, ok := c.backend.Load(key)
		if !ok {
			continue
		}
		if !now.Before(e.ExpiresAt) {
			c.backend.Delete(key)
			removed++
			continue
		}
		if e.Prefix == "" {
			continue
		}
		live[e.Prefix] = struct{}{}
		if e.Generation == floor {
			// Pin the value the entry was stamped with before the floor moves.
			c.generations.Compute(e.Prefix, func(old uint64, loaded bool) (uint64, bool) {
				if loaded {
					return old, false
				}
				return floor, false
			})
		}
	}

	next := c.clock.Load()
	for {
		cur := c.floor.Load()
		if next <= cur || c.floor.CompareAndSwap(cur, next) {
			break
		}
	}

	forgotten := 0
	c.generations.Range(func(prefix string, _ uint64) bool {
		if _, ok := live[prefix]; ok {
			return true
		}
		c.generations.Compute(prefix, func(old uint64, loaded bool) (uint64, bool) {
			if !loaded || old > next {
				return old, !loaded
			}
			forgotten++
			return old, true
		})
		return true
	})

	c.logger.Debug("cache pruned",
		slog.Int("expired", removed),
		slog.Int("generations_forgotten", forgotten))
	return removed
}

// Len reports the number of stored entries, including expired ones that
// have not been read since they expired.
func (c *Cache[V]) Len() int {
	return len(c.backend.Keys())
}

func (c *Cache[V]) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.now().Add(ttl)
}

func (c *Cache[V]) generation(prefix string) uint64 {
	if gen, ok := c.generations.Load(prefix); ok {
		return gen
	}
	return c.floor.Load()
}
