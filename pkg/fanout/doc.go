// Package fanout provides a bounded worker pool for resolving many independent
// upstream calls in parallel.
//
// A Pool is meant to be created once per process and shared: its semaphore
// bounds the calls in flight across every Run, so two concurrent fan-outs
// never exceed MaxConcurrency together.
//
// Example usage:
//
//	pool := fanout.NewPool(fanout.DefaultConfig())
//	outcomes := fanout.Run(ctx, pool, names, func(ctx context.Context, name string) (*pokemon.Pokemon, error) {
//	    return c.FetchOne(ctx, name)
//	})
//
// Run:
//   - Queues every input and starts min(MaxConcurrency, len(inputs)) workers
//   - Gives each call its own Timeout derived from the caller's context
//   - Waits for all inputs before returning (barrier join)
//   - Returns one Outcome per input, in input order
//
// Run never fails as a whole. Callers decide what a failed Outcome means.
package fanout
