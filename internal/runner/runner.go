package runner

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/torosent/volley/internal/timer"
)

// Runner dispatches a fixed number of units through a fixed-size admission
// window.
type Runner struct {
	opt         Options
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// RunID identifies the run in reports, logs and spans.
func (r *Runner) RunID() string { return r.opt.RunID }

// InFlight reports how many units are currently running.
func (r *Runner) InFlight() int64 { return r.inFlight.Load() }

// MaxInFlight reports the highest in-flight count observed so far.
func (r *Runner) MaxInFlight() int64 { return r.maxInFlight.Load() }

// Run executes every unit to completion and returns their outcomes in
// completion order. Individual request failures are part of the outcome;
// Run itself has no error path.
func (r *Runner) Run(ctx context.Context) TestOutcome {
	batch := timer.Measure(ctx, func(ctx context.Context) ([]RequestOutcome, error) {
		return r.dispatch(ctx), nil
	})

	return TestOutcome{
		RunID:       r.opt.RunID,
		Requests:    batch.Value,
		TotalTime:   batch.Elapsed,
		Concurrency: r.opt.Concurrency,
	}
}

func (r *Runner) dispatch(ctx context.Context) []RequestOutcome {
	total := r.opt.TotalRequests
	results := make(chan RequestOutcome, total)

	// Single collector: completions are appended in the order they arrive.
	collected := make(chan []RequestOutcome, 1)
	go func() {
		outcomes := make([]RequestOutcome, 0, total)
		for out := range results {
			outcomes = append(outcomes, out)
		}
		collected <- outcomes
	}()

	var g errgroup.Group
	g.SetLimit(r.opt.Concurrency)
	for i := 0; i < total; i++ {
		unit := r.opt.Factory()
		if unit == nil {
			panic(fmt.Sprintf("runner: factory returned nil unit %d of %d", i+1, total))
		}
		// Blocks while Concurrency units are in flight.
		g.Go(func() error {
			r.enter()
			r.opt.Observer.UnitStarted()
			out := unit.Run(ctx)
			r.opt.Observer.UnitFinished(out)
			r.inFlight.Add(-1)
			results <- out
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	outcomes := <-collected
	if len(outcomes) != total {
		panic(fmt.Sprintf("runner: collected %d outcomes, want %d", len(outcomes), total))
	}
	return outcomes
}

func (r *Runner) enter() {
	current := r.inFlight.Add(1)
	if current > int64(r.opt.Concurrency) {
		panic(fmt.Sprintf("runner: %d units in flight, limit is %d", current, r.opt.Concurrency))
	}
	for {
		peak := r.maxInFlight.Load()
		if current <= peak || r.maxInFlight.CompareAndSwap(peak, current) {
			return
		}
	}
}
