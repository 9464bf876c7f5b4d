package montecarlo

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/profile"
	"github.com/talgya/tribesim/internal/season"
)

// Options configures one batch.
type Options struct {
	Cfg   config.Config
	Store *profile.Store

	// Runs is the number of seasons to simulate.
	Runs int

	// Seed is the batch base seed; run i draws its stream from
	// (Seed, i), so a batch replays exactly regardless of worker count.
	Seed int64

	// Workers caps the pool size. Zero means GOMAXPROCS.
	Workers int

	// Record, when set, receives every successful season result, e.g.
	// for archiving. It is called from worker goroutines and must be
	// safe for concurrent use.
	Record func(run int, res *season.Result)
}

// Run simulates opts.Runs independent seasons and aggregates them.
// Cancelling the context stops scheduling new runs; already-aggregated
// runs are returned.
func Run(ctx context.Context, opts Options) (*Stats, error) {
	if opts.Runs <= 0 {
		return nil, fmt.Errorf("montecarlo: runs must be positive, got %d", opts.Runs)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("montecarlo: nil store")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > opts.Runs {
		workers = opts.Runs
	}

	names := opts.Store.Names()
	jobs := make(chan int)
	accs := make([]*accumulator, workers)
	var failures atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		acc := newAccumulator(names)
		accs[w] = acc
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := simulateOne(opts, idx, acc); err != nil {
					failures.Add(1)
					slog.Warn("simulation run failed", "run", idx, "error", err)
				}
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := 0; i < opts.Runs; i++ {
		select {
		case jobs <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	total := accs[0]
	for _, acc := range accs[1:] {
		total.merge(acc)
	}
	slog.Debug("batch complete",
		"dispatched", dispatched,
		"succeeded", total.runs,
		"failed", failures.Load())

	stats := total.stats(names, int(failures.Load()))
	if dispatched < opts.Runs {
		return stats, ctx.Err()
	}
	return stats, nil
}

// simulateOne plays a single season into the worker's accumulator. A
// panicking run is contained and reported as an error so one bad run
// cannot sink the batch.
func simulateOne(opts Options, idx int, acc *accumulator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %d panicked: %v", idx, r)
		}
	}()

	s, err := season.New(opts.Cfg, opts.Store, entropy.Stream(opts.Seed, idx))
	if err != nil {
		return err
	}
	res, err := s.Run()
	if err != nil {
		return err
	}
	acc.add(res)
	if opts.Record != nil {
		opts.Record(idx, res)
	}
	return nil
}
