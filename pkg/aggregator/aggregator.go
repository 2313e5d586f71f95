// Package aggregator builds the cached "all entities" collection from the
// upstream API and answers ranking queries over it.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokeapi-ranker/pkg/cache"
	"github.com/Sternrassler/pokeapi-ranker/pkg/client"
	"github.com/Sternrassler/pokeapi-ranker/pkg/fanout"
	"github.com/Sternrassler/pokeapi-ranker/pkg/logging"
	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
	"github.com/Sternrassler/pokeapi-ranker/pkg/ranking"
)

// Fetcher is the upstream access the aggregator needs. *client.Client implements it.
type Fetcher interface {
	FetchOne(ctx context.Context, nameOrID string) (*pokemon.Pokemon, error)
	FetchListing(ctx context.Context) ([]pokemon.Reference, error)
}

// Service aggregates and ranks upstream records.
type Service struct {
	fetcher    Fetcher
	pool       *fanout.Pool
	collection *cache.Collection
	logger     zerolog.Logger
}

// New creates a Service. A nil pool or collection is replaced by a default one.
func New(fetcher Fetcher, pool *fanout.Pool, collection *cache.Collection) *Service {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	if pool == nil {
		pool = fanout.NewPool(fanout.DefaultConfig())
	}
	if collection == nil {
		collection = cache.NewCollection(cache.Config{})
	}

	return &Service{
		fetcher:    fetcher,
		pool:       pool,
		collection: collection,
		logger:     logging.NewLogger("aggregator"),
	}
}

// GetAll returns the cached collection, populating it on first use.
// A listing failure is returned unchanged in kind and nothing is cached.
// Records that fail individually are left out.
func (s *Service) GetAll(ctx context.Context) ([]pokemon.Pokemon, error) {
	return s.collection.Get(ctx, s.populate)
}

// TopByWeight returns the limit heaviest entities.
func (s *Service) TopByWeight(ctx context.Context, limit int) ([]pokemon.Pokemon, error) {
	return s.Top(ctx, ranking.ByWeight, limit)
}

// TopByHeight returns the limit tallest entities.
func (s *Service) TopByHeight(ctx context.Context, limit int) ([]pokemon.Pokemon, error) {
	return s.Top(ctx, ranking.ByHeight, limit)
}

// TopByExperience returns the limit entities with the highest base experience.
func (s *Service) TopByExperience(ctx context.Context, limit int) ([]pokemon.Pokemon, error) {
	return s.Top(ctx, ranking.ByExperience, limit)
}

// Top ranks the collection by key. The limit is checked before anything is fetched.
func (s *Service) Top(ctx context.Context, key ranking.Key, limit int) ([]pokemon.Pokemon, error) {
	if err := ranking.ValidateLimit(limit); err != nil {
		return nil, err
	}

	items, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	rankingRequestsTotal.WithLabelValues(key.String()).Inc()
	return ranking.Top(items, key, limit)
}

// GetOne fetches a single entity straight from upstream. It bypasses the cache.
func (s *Service) GetOne(ctx context.Context, nameOrID string) (*pokemon.Pokemon, error) {
	return s.fetcher.FetchOne(ctx, nameOrID)
}

// Invalidate drops the cached collection so the next read repopulates it.
func (s *Service) Invalidate(ctx context.Context) {
	s.collection.Invalidate(ctx)
}

// Ready reports whether the service's backing stores are reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.collection.Ping(ctx)
}

// populate fetches the listing, resolves every entry through the pool and
// joins the successes in listing order.
func (s *Service) populate(ctx context.Context) ([]pokemon.Pokemon, error) {
	start := time.Now()

	refs, err := s.fetcher.FetchListing(ctx)
	if err != nil {
		listingFailuresTotal.Inc()
		s.logger.Error().Err(err).Msg("Listing fetch failed")
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	s.logger.Info().Int("listed", len(refs)).Msg("Starting collection population")

	outcomes := fanout.Run(ctx, s.pool, pokemon.Names(refs), func(ctx context.Context, name string) (*pokemon.Pokemon, error) {
		return s.fetcher.FetchOne(ctx, name)
	})

	items := make([]pokemon.Pokemon, 0, len(outcomes))
	var rejected int
	var firstRejection error
	for _, o := range outcomes {
		result := client.ResultOf(o.Input, o.Value, o.Err)
		fetchOutcomesTotal.WithLabelValues(result.Kind.String()).Inc()

		// A rejected call never reached upstream, so the record is unknown, not failed.
		if client.IsCircuitOpen(result.Err) {
			if rejected == 0 {
				firstRejection = result.Err
			}
			rejected++
			continue
		}

		switch result.Kind {
		case client.ResultSuccess:
			items = append(items, result.Pokemon)
		case client.ResultNotFound:
			s.logger.Debug().Str("name", result.NameOrID).Msg("Listed record not found, skipped")
		case client.ResultTransportFailure:
			s.logger.Debug().Err(result.Err).Str("name", result.NameOrID).Msg("Record fetch failed, skipped")
		}
	}

	populationDuration.Observe(time.Since(start).Seconds())

	if rejected > 0 {
		populationsAbortedTotal.Inc()
		s.logger.Error().
			Err(firstRejection).
			Int("listed", len(refs)).
			Int("rejected", rejected).
			Msg("Circuit opened during population, collection not cached")
		return nil, fmt.Errorf("populate collection: %d of %d fetches rejected: %w", rejected, len(refs), firstRejection)
	}

	s.logger.Info().
		Int("listed", len(refs)).
		Int("fetched", len(items)).
		Int("skipped", len(refs)-len(items)).
		Dur("duration", time.Since(start)).
		Msg("Collection population complete")

	return items, nil
}
