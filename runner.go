package shipbook

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkerCap bounds concurrent model calls per task group. The cap is
// backpressure against the provider's own request queue, not a performance
// knob: exceeding it measurably degrades latency.
const DefaultWorkerCap = 2

// Runner lets the workflow schedule work with any concurrency model.
type Runner interface {
	Go(fn func() error) // schedule
	Wait() error        // join / propagate first err
}

// RunnerFactory produces a Runner per group execution. The default is
// NewLimitedRunner; workflow engines can substitute their own scheduler.
type RunnerFactory func(ctx context.Context, maxConcurrency int) Runner

// NewLimitedRunner creates a runner with bounded concurrency.
func NewLimitedRunner(ctx context.Context, maxConcurrency int) Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultWorkerCap
	}
	return newErrGroupRunner(ctx, maxConcurrency)
}

// errGroupRunner is the default implementation backed by errgroup.Group.
type errGroupRunner struct {
	ctx context.Context // derived ctx shared by all tasks
	eg  *errgroup.Group
	sem chan struct{} // concurrency gate
}

func newErrGroupRunner(parent context.Context, maxConcurrency int) *errGroupRunner {
	eg, ctx := errgroup.WithContext(parent)
	return &errGroupRunner{
		ctx: ctx,
		eg:  eg,
		sem: make(chan struct{}, maxConcurrency),
	}
}

func (r *errGroupRunner) Go(fn func() error) {
	r.eg.Go(func() error {
		r.sem <- struct{}{}        // acquire
		defer func() { <-r.sem }() // release
		return fn()
	})
}

func (r *errGroupRunner) Wait() error { return r.eg.Wait() }
