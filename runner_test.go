package shipbook

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimitedRunnerRespectsCap(t *testing.T) {
	var running, peak atomic.Int64

	r := NewLimitedRunner(context.Background(), 2)
	for i := 0; i < 8; i++ {
		r.Go(func() error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	if err := r.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestLimitedRunnerPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")

	r := NewLimitedRunner(context.Background(), 2)
	r.Go(func() error { return nil })
	r.Go(func() error { return boom })
	r.Go(func() error { return nil })

	if err := r.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait() = %v, want %v", err, boom)
	}
}

func TestLimitedRunnerZeroCapFallsBack(t *testing.T) {
	r := NewLimitedRunner(context.Background(), 0)
	done := make(chan struct{})
	r.Go(func() error {
		close(done)
		return nil
	})
	if err := r.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-done:
	default:
		t.Error("scheduled function never ran")
	}
}

// serialRunner executes each task inline, deferring only error joining.
type serialRunner struct{ err error }

func (r *serialRunner) Go(fn func() error) {
	if err := fn(); err != nil && r.err == nil {
		r.err = err
	}
}

func (r *serialRunner) Wait() error { return r.err }

func TestWithRunnerSubstitutesScheduler(t *testing.T) {
	var factoryCalls atomic.Int64
	factory := func(context.Context, int) Runner {
		factoryCalls.Add(1)
		return &serialRunner{}
	}

	x, err := NewForTesting(scenarioInvoker(bielefeldResponses), WithRunner(factory))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	record, err := x.Run(context.Background(), bielefeldText)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := factoryCalls.Load(); got != 4 {
		t.Errorf("factory invoked %d times, want one per group", got)
	}
	if got := record.PickupAddress["city"]; got != "Bielefeld" {
		t.Errorf("pickup city = %v, want Bielefeld", got)
	}
}
