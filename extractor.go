package shipbook

import (
	"context"
	"log/slog"

	"google.golang.org/genai"
)

// groupOrder fixes the node order of the workflow graph. In the chained
// topology this is also the execution sequence.
var groupOrder = []struct {
	Name   string
	Entity string
}{
	{"pickup", EntityPickup},
	{"delivery", EntityDelivery},
	{"billing", EntityBilling},
	{"shipment", EntityShipment},
}

// Extractor is the invocation surface: one call per input text, stateless
// between runs.
type Extractor struct {
	workflow *Workflow
	log      *slog.Logger
}

// New builds an extractor over an invoker and a prompt provider. All
// configuration problems surface here, before any model call: schema
// compilation, missing prompt templates, nil collaborators.
func New(invoker Invoker, prompts PromptProvider, optFns ...func(*Options)) (*Extractor, error) {
	if invoker == nil {
		return nil, ErrNilInvoker
	}
	if prompts == nil {
		return nil, ErrNilPrompts
	}

	var opts Options
	opts.Model = DefaultModel
	for _, fn := range optFns {
		fn(&opts)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	taskCfg := TaskConfig{
		Model:       opts.Model,
		MaxAttempts: opts.MaxAttempts,
		CallTimeout: opts.CallTimeout,
		Backoff:     opts.Backoff,
	}

	nodes := make([]*graphNode, 0, len(groupOrder))
	for _, entry := range groupOrder {
		declared := GroupsForEntity(entry.Entity)
		tasks := make([]*Task, 0, len(declared))
		for i := range declared {
			group := &declared[i]
			if _, err := prompts.GetPrompt(group.Prompt, 1); err != nil {
				return nil, err
			}
			task, err := NewTask(group, invoker, prompts, taskCfg, log)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}

		var merger Merger
		if entry.Entity == EntityShipment {
			merger = NewShipmentMerger(log)
		} else {
			merger = NewAddressMerger(entry.Entity, log)
		}
		group := NewGroup(entry.Name, entry.Entity, tasks, opts.MaxWorkers, log)
		if opts.Runner != nil {
			group.newRunner = opts.Runner
		}
		nodes = append(nodes, &graphNode{group: group, merger: merger})
	}

	return &Extractor{
		workflow: NewWorkflow(nodes, opts.Topology, opts.Sink, log),
		log:      log,
	}, nil
}

// NewFromConfig performs the pre-flight credential check, builds a Gemini
// client and wires the embedded prompt set.
func NewFromConfig(ctx context.Context, cfg *Config, optFns ...func(*Options)) (*Extractor, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}

	prompts, err := DefaultPromptProvider()
	if err != nil {
		return nil, err
	}

	var base Options
	base.fromConfig(cfg)
	seeded := append([]func(*Options){func(o *Options) { *o = base }}, optFns...)

	return New(NewGenaiInvoker(client, slog.Default()), prompts, seeded...)
}

// Run processes one input text through the workflow graph and returns the
// assembled booking record. Any call that reaches result assembly yields a
// record; per-field extraction failures degrade to nulls instead of
// erroring.
func (x *Extractor) Run(ctx context.Context, text string) (*BookingRecord, error) {
	return x.workflow.Run(ctx, text), nil
}

// RunDocument is Run with binary-input rejection at the intake boundary.
func (x *Extractor) RunDocument(ctx context.Context, doc *Document) (*BookingRecord, error) {
	if doc == nil {
		return nil, ErrBinaryInput
	}
	return x.Run(ctx, doc.Text())
}

// NodeStates exposes the last run's per-node states, mainly for observers
// and tests.
func (x *Extractor) NodeStates() map[string]NodeState {
	return x.workflow.NodeStates()
}
