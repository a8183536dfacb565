package shipbook

import (
	"log/slog"
	"time"
)

// Options represents functional options for the extractor build step.
type Options struct {
	Model       string
	Topology    Topology
	MaxWorkers  int           // per-group worker cap, 0 → DefaultWorkerCap
	MaxAttempts int           // per-task attempt budget, 0 → DefaultMaxAttempts
	CallTimeout time.Duration // per-attempt deadline, 0 → DefaultCallTimeout
	Backoff     time.Duration // 0 → no delay between attempts
	Runner      RunnerFactory // nil → NewLimitedRunner
	Sink        ProgressSink
	Logger      *slog.Logger
}

func WithModel(name string) func(*Options) {
	return func(o *Options) { o.Model = name }
}

func WithTopology(t Topology) func(*Options) {
	return func(o *Options) { o.Topology = t }
}

func WithMaxWorkers(n int) func(*Options) {
	return func(o *Options) { o.MaxWorkers = n }
}

func WithTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.CallTimeout = d }
}

func WithRetry(maxAttempts int, backoff time.Duration) func(*Options) {
	return func(o *Options) {
		o.MaxAttempts = maxAttempts
		o.Backoff = backoff
	}
}

// WithRunner substitutes the scheduler used for each group execution, for
// embedding into an external workflow engine.
func WithRunner(factory RunnerFactory) func(*Options) {
	return func(o *Options) { o.Runner = factory }
}

func WithProgressSink(sink ProgressSink) func(*Options) {
	return func(o *Options) { o.Sink = sink }
}

func WithLogger(log *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = log }
}

// fromConfig seeds the options from a loaded Config; explicit option
// functions applied afterwards win.
func (o *Options) fromConfig(cfg *Config) {
	o.Model = cfg.Model
	o.Topology = cfg.Topology
	o.MaxWorkers = cfg.MaxWorkers
	o.MaxAttempts = cfg.MaxAttempts
	o.CallTimeout = cfg.CallTimeout
	o.Backoff = cfg.Backoff
}
