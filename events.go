package shipbook

import (
	"time"

	"github.com/google/uuid"
)

// NodeStatus is the lifecycle state a progress event reports for one graph
// node.
type NodeStatus string

const (
	NodeStarted       NodeStatus = "started"
	NodeCompleted     NodeStatus = "completed"
	NodeFailedPartial NodeStatus = "failed_partial"
)

// ProgressEvent is emitted after each node transition. Events are strictly
// informational: no subscriber can affect control flow or merge outcomes.
type ProgressEvent struct {
	RunID  uuid.UUID
	Node   string
	Status NodeStatus
	Error  string   // non-empty on failed_partial
	Failed []string // names of exhausted member tasks, if any
	At     time.Time
}

// ProgressSink consumes progress events. Implementations are called
// synchronously and should return quickly; a panicking sink is contained.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ProgressFunc adapts a plain function to a ProgressSink.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) OnEvent(e ProgressEvent) { f(e) }

// emit delivers an event to the sink, swallowing panics so that observer
// misbehavior never reaches the workflow.
func emit(sink ProgressSink, e ProgressEvent) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	sink.OnEvent(e)
}
