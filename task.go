package shipbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// TaskConfig carries the per-task call parameters. There is no ambient
// global model state; every task gets its configuration injected at
// construction time.
type TaskConfig struct {
	Model       string
	MaxAttempts int           // total attempts, including the first call
	CallTimeout time.Duration // per-attempt deadline at the model boundary
	Backoff     time.Duration // delay before re-attempt, doubled each time
}

const (
	DefaultMaxAttempts = 2
	DefaultCallTimeout = 10 * time.Second
)

func (c TaskConfig) withDefaults() TaskConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	return c
}

// Task is one schema-scoped extraction call with a bounded attempt budget.
type Task struct {
	group   *FieldGroup
	schema  *jsonschema.Schema
	prompts PromptProvider
	invoker Invoker
	cfg     TaskConfig
	log     *slog.Logger
}

// NewTask compiles the group schema and binds it to a prompt and an invoker.
func NewTask(group *FieldGroup, invoker Invoker, prompts PromptProvider, cfg TaskConfig, log *slog.Logger) (*Task, error) {
	if invoker == nil {
		return nil, ErrNilInvoker
	}
	if prompts == nil {
		return nil, ErrNilPrompts
	}
	if log == nil {
		log = slog.Default()
	}
	schema, err := compileSchema(group)
	if err != nil {
		return nil, err
	}
	return &Task{
		group:   group,
		schema:  schema,
		prompts: prompts,
		invoker: invoker,
		cfg:     cfg.withDefaults(),
		log:     log,
	}, nil
}

// Name is the task's slot name in its group's result mapping.
func (t *Task) Name() string { return t.group.Name }

// Entity is the top-level entity the task's group belongs to.
func (t *Task) Entity() string { return t.group.Entity }

// Execute runs the extraction against the input text. Each attempt is an
// independent call with the identical prompt; no partial output carries over
// between attempts, and a timed-out call consumes one attempt. On success
// the result carries every declared field name, unset optionals as nil. On
// an exhausted budget the error is a *TaskExhaustedError.
func (t *Task) Execute(ctx context.Context, text string) (map[string]any, error) {
	system, err := t.renderPrompt()
	if err != nil {
		return nil, &TaskExhaustedError{Task: t.Name(), Attempts: 0, Last: err}
	}

	var last error
	delay := t.cfg.Backoff
	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		if attempt > 1 && delay > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		out, err := t.attempt(ctx, system, text)
		if err == nil {
			if attempt > 1 {
				t.log.Debug("attempt succeeded", "task", t.Name(), "attempt", attempt)
			}
			return out, nil
		}
		last = err
		t.log.Debug("attempt failed", "task", t.Name(), "attempt", attempt, "error", err)
	}
	return nil, &TaskExhaustedError{Task: t.Name(), Attempts: t.cfg.MaxAttempts, Last: last}
}

// attempt performs one model call and validates its output.
func (t *Task) attempt(ctx context.Context, system, text string) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.cfg.CallTimeout)
	defer cancel()

	raw, err := t.invoker.Generate(callCtx, CallSpec{
		Schema:   t.group.Name,
		Model:    t.cfg.Model,
		System:   system,
		Document: text,
	})
	if err != nil {
		var transient *TransientCallError
		if errors.As(err, &transient) {
			return nil, err
		}
		// Non-transport failures from the invoker mean the provider returned
		// something structurally unusable.
		return nil, &MalformedOutputError{Task: t.Name(), Err: err}
	}

	obj, err := validateOutput(t.schema, sanitizeJSONResponse(raw))
	if err != nil {
		return nil, &MalformedOutputError{Task: t.Name(), Err: err}
	}
	return t.normalize(obj), nil
}

// normalize restricts the output to the declared vocabulary and materializes
// unset optional fields as nil, so downstream merges see a uniform shape.
func (t *Task) normalize(obj map[string]any) map[string]any {
	out := make(map[string]any, len(t.group.Fields))
	for _, f := range t.group.Fields {
		if v, ok := obj[f.Name]; ok {
			out[f.Name] = v
		} else {
			out[f.Name] = nil
		}
	}
	return out
}

func (t *Task) renderPrompt() (string, error) {
	tag := t.group.Prompt
	if cp, ok := t.prompts.(ContextualPromptProvider); ok {
		return cp.GetPromptWithKeys(tag, 1, t.group.PromptKeys())
	}
	tpl, err := t.prompts.GetPrompt(tag, 1)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptMissing, err)
	}
	return tpl, nil
}
