package shipbook

import (
	"context"
	"log/slog"
	"sync"
)

// TaskResult is the transient per-task outcome, consumed immediately by the
// owning merge step. Exactly one of Data and Err is set.
type TaskResult struct {
	Task string
	Data map[string]any
	Err  error // *TaskExhaustedError on failure
}

// Failed reports whether the task spent its attempt budget without output.
func (r TaskResult) Failed() bool { return r.Err != nil }

// Group is a named set of extraction tasks targeting one top-level entity,
// executed concurrently under a worker cap.
type Group struct {
	Name       string
	Entity     string
	Tasks      []*Task
	MaxWorkers int
	newRunner  RunnerFactory
	log        *slog.Logger
}

// NewGroup assembles a task group. A cap <= 0 falls back to DefaultWorkerCap.
func NewGroup(name, entity string, tasks []*Task, maxWorkers int, log *slog.Logger) *Group {
	if log == nil {
		log = slog.Default()
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkerCap
	}
	return &Group{Name: name, Entity: entity, Tasks: tasks, MaxWorkers: maxWorkers, newRunner: NewLimitedRunner, log: log}
}

// Execute runs every member task against the same input text. A member's
// failure never aborts its siblings and never raises out of the group: the
// returned mapping carries an entry for every member, failed slots marked
// with their exhaustion error. Each task owns exclusively its own slot, so
// concurrent writers never touch the same key.
func (g *Group) Execute(ctx context.Context, text string) map[string]TaskResult {
	results := make(map[string]TaskResult, len(g.Tasks))
	var mu sync.Mutex

	r := g.newRunner(ctx, g.MaxWorkers)
	for _, task := range g.Tasks {
		task := task
		r.Go(func() error {
			data, err := task.Execute(ctx, text)
			if err != nil {
				g.log.Warn("task exhausted", "group", g.Name, "task", task.Name(), "error", err)
			}
			mu.Lock()
			results[task.Name()] = TaskResult{Task: task.Name(), Data: data, Err: err}
			mu.Unlock()
			return nil // containment: sibling tasks keep running
		})
	}
	// Runner only ever sees nil errors; Wait is for joining.
	_ = r.Wait()

	g.log.Debug("group completed", "group", g.Name, "tasks", len(g.Tasks))
	return results
}
