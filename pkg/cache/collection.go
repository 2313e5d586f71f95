package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Sternrassler/pokeapi-ranker/pkg/logging"
	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

// DefaultTTL is the lifetime of an entry in the Redis tier.
const DefaultTTL = time.Hour

const flightKey = "collection"

// Loader populates the collection on a miss.
type Loader func(ctx context.Context) ([]pokemon.Pokemon, error)

// Config configures a Collection.
type Config struct {
	// Key identifies the collection in the Redis tier
	Key CacheKey

	// TTL of the Redis tier entry (default: 1h). The in-process entry does not expire.
	TTL time.Duration

	// Store is the optional Redis tier. Nil keeps the cache in-process only.
	Store *RedisStore
}

// Collection caches the single "all entities" collection. It is populated at
// most once per generation, concurrent misses share one load, and failures are
// never cached.
type Collection struct {
	mu         sync.RWMutex
	items      []pokemon.Pokemon
	loaded     bool
	generation uint64

	group  singleflight.Group
	key    CacheKey
	ttl    time.Duration
	store  *RedisStore
	logger zerolog.Logger
}

// NewCollection creates an empty collection cache.
func NewCollection(cfg Config) *Collection {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Key.Resource == "" {
		cfg.Key = CollectionKey(0)
	}

	return &Collection{
		key:    cfg.Key,
		ttl:    cfg.TTL,
		store:  cfg.Store,
		logger: logging.NewLogger("cache").With().Str("key", cfg.Key.String()).Logger(),
	}
}

// Get returns a copy of the cached collection, calling load on a miss.
//
// The shared load runs detached from ctx so that a caller giving up does not
// fail the callers waiting on the same load; such a caller gets ctx.Err().
func (c *Collection) Get(ctx context.Context, load Loader) ([]pokemon.Pokemon, error) {
	if items, ok := c.cached(); ok {
		CacheHits.WithLabelValues("memory").Inc()
		return items, nil
	}
	CacheMisses.Inc()

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.populate(context.WithoutCancel(ctx), load)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]pokemon.Pokemon)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached collection from both tiers. A load already in
// flight completes for its callers but is not installed.
func (c *Collection) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.items = nil
	c.loaded = false
	c.generation++
	c.mu.Unlock()

	c.group.Forget(flightKey)
	CacheInvalidations.Inc()
	CacheEntries.Set(0)

	if c.store != nil {
		if err := c.store.Delete(ctx, c.key); err != nil {
			c.logger.Warn().Err(err).Msg("Redis tier delete failed")
		}
	}

	c.logger.Info().Msg("Collection cache invalidated")
}

// Loaded reports whether the in-process entry is populated.
func (c *Collection) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Ping checks the Redis tier. Without a tier it always succeeds.
func (c *Collection) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Ping(ctx)
}

func (c *Collection) cached() ([]pokemon.Pokemon, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	return slices.Clone(c.items), true
}

func (c *Collection) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// populate runs inside the single flight. The returned slice is shared by
// every waiting caller and must not be mutated.
func (c *Collection) populate(ctx context.Context, load Loader) ([]pokemon.Pokemon, error) {
	c.mu.RLock()
	gen := c.generation
	if c.loaded {
		items := c.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	if c.store != nil {
		entry, err := c.store.Get(ctx, c.key)
		switch {
		case err == nil:
			items := entry.Items
			if items == nil {
				items = []pokemon.Pokemon{}
			}
			CacheHits.WithLabelValues("redis").Inc()
			c.install(gen, items)
			c.logger.Debug().Int("count", len(items)).Msg("Collection restored from Redis tier")
			return items, nil
		case !errors.Is(err, ErrCacheMiss):
			c.logger.Warn().Err(err).Msg("Redis tier read failed")
		}
	}

	start := time.Now()
	items, err := load(ctx)
	if err != nil {
		CacheLoads.WithLabelValues("error").Inc()
		return nil, err
	}
	if items == nil {
		items = []pokemon.Pokemon{}
	}

	if !c.install(gen, items) {
		CacheLoads.WithLabelValues("discarded").Inc()
		c.logger.Debug().Msg("Collection invalidated during population, result not cached")
		return items, nil
	}
	CacheLoads.WithLabelValues("ok").Inc()

	c.logger.Info().
		Int("count", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Collection populated")

	c.writeThrough(ctx, gen, items)

	return items, nil
}

// writeThrough stores items in the Redis tier unless a newer generation owns it.
func (c *Collection) writeThrough(ctx context.Context, gen uint64, items []pokemon.Pokemon) {
	if c.store == nil || c.currentGeneration() != gen {
		return
	}
	if err := c.store.Set(ctx, c.key, NewEntry(items, c.ttl)); err != nil {
		c.logger.Warn().Err(err).Msg("Redis tier write failed")
	}
}

// install stores items unless the collection was invalidated after gen was read.
func (c *Collection) install(gen uint64, items []pokemon.Pokemon) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.items = items
	c.loaded = true
	CacheEntries.Set(float64(len(items)))
	return true
}
