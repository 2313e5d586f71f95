package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Config holds fan-out pool configuration
type Config struct {
	// MaxConcurrency is the maximum number of calls in flight across all runs
	// sharing a pool.
	MaxConcurrency int
	// Timeout per item
	Timeout time.Duration
}

// DefaultConfig returns the default pool configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// Pool bounds the number of concurrent calls made by every Run sharing it.
type Pool struct {
	sem    *semaphore.Weighted
	config Config
}

// NewPool creates a pool. Zero fields fall back to DefaultConfig.
func NewPool(config Config) *Pool {
	def := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	fanoutPoolCapacity.Set(float64(config.MaxConcurrency))

	return &Pool{
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrency)),
		config: config,
	}
}

// Config returns the effective pool configuration.
func (p *Pool) Config() Config {
	return p.config
}

// Outcome is the resolution of a single input.
type Outcome[T any] struct {
	Index int
	Input string
	Value T
	Err   error
}

// Run calls fn once per input and blocks until every input is resolved.
// Outcomes are returned in input order. Each call gets its own deadline of
// Config.Timeout. Inputs still queued when ctx is done resolve with ctx's error.
func Run[T any](ctx context.Context, pool *Pool, inputs []string, fn func(ctx context.Context, input string) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], len(inputs))
	if len(inputs) == 0 {
		return outcomes
	}

	start := time.Now()

	workers := pool.config.MaxConcurrency
	if workers > len(inputs) {
		workers = len(inputs)
	}

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go worker(ctx, pool, w, inputs, queue, outcomes, fn, &wg)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}

	elapsed := time.Since(start)
	fanoutRunDuration.Observe(elapsed.Seconds())
	log.Debug().
		Int("items", len(inputs)).
		Int("failed", failed).
		Int("workers", workers).
		Dur("duration", elapsed).
		Msg("Fan-out complete")

	return outcomes
}

// worker drains the queue. Each index is taken by exactly one worker, so
// outcomes are written without locking.
func worker[T any](
	ctx context.Context,
	pool *Pool,
	workerID int,
	inputs []string,
	queue <-chan int,
	outcomes []Outcome[T],
	fn func(ctx context.Context, input string) (T, error),
	wg *sync.WaitGroup,
) {
	defer wg.Done()
	processed := 0

	for i := range queue {
		outcomes[i] = Outcome[T]{Index: i, Input: inputs[i]}

		// A done ctx still resolves the item.
		err := ctx.Err()
		if err == nil {
			err = pool.sem.Acquire(ctx, 1)
		}
		if err != nil {
			outcomes[i].Err = err
			fanoutItemsTotal.WithLabelValues("cancelled").Inc()
			continue
		}

		fanoutInFlight.Inc()
		itemCtx, cancel := context.WithTimeout(ctx, pool.config.Timeout)
		value, err := fn(itemCtx, inputs[i])
		cancel()
		fanoutInFlight.Dec()
		pool.sem.Release(1)

		outcomes[i].Value = value
		outcomes[i].Err = err
		if err != nil {
			fanoutItemsTotal.WithLabelValues("error").Inc()
		} else {
			fanoutItemsTotal.WithLabelValues("ok").Inc()
		}
		processed++
	}

	if processed > 0 {
		log.Trace().
			Int("worker_id", workerID).
			Int("items_processed", processed).
			Msg("Worker completed")
	}
}
