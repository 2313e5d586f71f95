// Command pokemon-api serves aggregate rankings over the PokéAPI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/pokeapi-ranker/internal/api"
	"github.com/Sternrassler/pokeapi-ranker/internal/config"
	"github.com/Sternrassler/pokeapi-ranker/pkg/aggregator"
	"github.com/Sternrassler/pokeapi-ranker/pkg/cache"
	"github.com/Sternrassler/pokeapi-ranker/pkg/client"
	"github.com/Sternrassler/pokeapi-ranker/pkg/fanout"
	"github.com/Sternrassler/pokeapi-ranker/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LoggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		var err error
		redisClient, err = connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	pokeClient, err := client.New(cfg.ClientConfig())
	if err != nil {
		return fmt.Errorf("create pokeapi client: %w", err)
	}
	defer pokeClient.Close()

	svc := newService(cfg, pokeClient, redisClient)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(svc, routerConfig(cfg)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("base_url", cfg.PokeAPI.BaseURL).
			Str("user_agent", cfg.PokeAPI.UserAgent).
			Int("workers", cfg.Fanout.Workers).
			Bool("redis", redisClient != nil).
			Msg("Starting PokéAPI ranking server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// connectRedis parses url and pings the server.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return redisClient, nil
}

// newService wires the aggregator. A nil redisClient keeps the cache in-process.
func newService(cfg *config.Config, fetcher aggregator.Fetcher, redisClient *redis.Client) *aggregator.Service {
	cacheCfg := cache.Config{
		Key: cache.CollectionKey(cfg.PokeAPI.ListingLimit),
		TTL: cfg.Cache.TTL,
	}
	if redisClient != nil {
		cacheCfg.Store = cache.NewRedisStore(redisClient)
	}

	return aggregator.New(
		fetcher,
		fanout.NewPool(cfg.FanoutConfig()),
		cache.NewCollection(cacheCfg),
	)
}

func routerConfig(cfg *config.Config) api.Config {
	return api.Config{
		DefaultLimit:      cfg.API.DefaultLimit,
		MaxLimit:          cfg.API.MaxLimit,
		RateLimitRequests: cfg.API.RateLimitRequests,
		RateLimitWindow:   cfg.API.RateLimitWindow,
		RateLimitDisabled: cfg.API.RateLimitDisabled,
	}
}
