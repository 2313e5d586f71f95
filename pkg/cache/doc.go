// Package cache holds the aggregate collection cache with an optional Redis tier.
//
// A Collection caches exactly one logical entry, the successfully fetched
// entities of the most recent full listing. It features:
//
// - Lazy population on the first miss
// - Single-flight loading: concurrent misses share one load
// - Failed loads are never cached; the next call retries
// - Manual invalidation guarded by a generation counter
// - An optional Redis tier shared between replicas
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	coll := cache.NewCollection(cache.Config{Key: cache.CollectionKey(0)})
//
//	items, err := coll.Get(ctx, func(ctx context.Context) ([]pokemon.Pokemon, error) {
//		// fetch listing and fan out
//	})
//
// # Redis Tier
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	coll := cache.NewCollection(cache.Config{
//		Key:   cache.CollectionKey(151),
//		TTL:   time.Hour,
//		Store: cache.NewRedisStore(redisClient),
//	})
//
// On an in-process miss the tier is read before loading, and a fresh load is
// written back with the configured TTL. Redis errors are logged and never
// fail a lookup.
//
// # Metrics
//
//   - pokeapi_cache_hits_total{layer} - Cache hits ("memory", "redis")
//   - pokeapi_cache_misses_total - Cache misses
//   - pokeapi_cache_loads_total{result} - Population attempts
//   - pokeapi_cache_invalidations_total - Manual invalidations
//   - pokeapi_cache_entries - Entities in the cached collection
//   - pokeapi_cache_size_bytes{layer="redis"} - Encoded entry size
//   - pokeapi_cache_errors_total{operation} - Redis operation errors
package cache
