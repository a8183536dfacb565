package shipbook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Topology selects the execution order of the task groups. The choice is an
// operational tradeoff: parallel minimizes latency, chained caps the number
// of concurrent outbound model calls when provider rate limits are tight.
type Topology int

const (
	// TopologyParallel starts every task group at graph entry.
	TopologyParallel Topology = iota
	// TopologyChained executes the groups in a fixed sequence, each group's
	// completion gating the next group's start.
	TopologyChained
)

func (t Topology) String() string {
	if t == TopologyChained {
		return "chained"
	}
	return "parallel"
}

// ParseTopology maps a configuration string to a Topology.
func ParseTopology(s string) (Topology, error) {
	switch s {
	case "", "parallel":
		return TopologyParallel, nil
	case "chained", "sequential":
		return TopologyChained, nil
	}
	return TopologyParallel, fmt.Errorf("unknown topology %q", s)
}

// NodeState is the lifecycle state of one graph node.
type NodeState int

const (
	StatePending NodeState = iota
	StateRunning
	StateCompleted
	StateFailedPartial
)

func (s NodeState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailedPartial:
		return "failed_partial"
	}
	return "pending"
}

// graphNode pairs a task group with its merge step.
type graphNode struct {
	group  *Group
	merger Merger
}

// runState is the typed per-run context: one statically declared slot per
// merged entity. Concurrent nodes write disjoint slots; the errgroup join
// publishes them before assembly reads.
type runState struct {
	pickup   map[string]any
	delivery map[string]any
	billing  map[string]any
	shipment map[string]any
}

func (s *runState) set(entity string, merged map[string]any) {
	switch entity {
	case EntityPickup:
		s.pickup = merged
	case EntityDelivery:
		s.delivery = merged
	case EntityBilling:
		s.billing = merged
	case EntityShipment:
		s.shipment = merged
	}
}

// Workflow is the static DAG of task groups, merge steps and the terminal
// assembly step. It is walked to completion once per run; there is no
// dynamic re-planning.
type Workflow struct {
	nodes    []*graphNode
	topology Topology
	sink     ProgressSink
	log      *slog.Logger

	mu     sync.Mutex
	states map[string]NodeState
}

// NewWorkflow wires groups to their mergers in declaration order.
func NewWorkflow(nodes []*graphNode, topology Topology, sink ProgressSink, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	states := make(map[string]NodeState, len(nodes))
	for _, n := range nodes {
		states[n.group.Name] = StatePending
	}
	return &Workflow{nodes: nodes, topology: topology, sink: sink, log: log, states: states}
}

// NodeStates returns a snapshot of per-node states.
func (w *Workflow) NodeStates() map[string]NodeState {
	w.mu.Lock()
	defer w.mu.Unlock()
	snapshot := make(map[string]NodeState, len(w.states))
	for k, v := range w.states {
		snapshot[k] = v
	}
	return snapshot
}

func (w *Workflow) setState(node string, state NodeState) {
	w.mu.Lock()
	w.states[node] = state
	w.mu.Unlock()
}

// Run walks the graph over the input text and always produces a complete
// BookingRecord. A leaf task failure degrades its entity's fields to null;
// it never fails the run as a whole.
func (w *Workflow) Run(ctx context.Context, text string) *BookingRecord {
	runID := uuid.New()
	state := &runState{}

	w.log.Info("workflow started", "run_id", runID, "topology", w.topology.String(), "nodes", len(w.nodes))

	switch w.topology {
	case TopologyChained:
		for _, node := range w.nodes {
			w.runNode(ctx, runID, node, text, state)
		}
	default:
		eg, egCtx := errgroup.WithContext(ctx)
		for _, node := range w.nodes {
			node := node
			eg.Go(func() error {
				w.runNode(egCtx, runID, node, text, state)
				return nil
			})
		}
		_ = eg.Wait()
	}

	record := Assemble(state.pickup, state.delivery, state.billing, state.shipment)
	w.log.Info("workflow completed", "run_id", runID)
	return record
}

// runNode executes one group, merges its partial results and records the
// merged entity in the node's run-state slot.
func (w *Workflow) runNode(ctx context.Context, runID uuid.UUID, node *graphNode, text string, state *runState) {
	name := node.group.Name
	w.setState(name, StateRunning)
	emit(w.sink, ProgressEvent{RunID: runID, Node: name, Status: NodeStarted, At: time.Now()})

	results := node.group.Execute(ctx, text)

	var failed []string
	for taskName, res := range results {
		if res.Failed() {
			failed = append(failed, taskName)
		}
	}

	merged, violations := node.merger.Merge(results)
	for _, v := range violations {
		w.log.Warn("schema violation during merge", "node", name, "violation", v.Error())
	}
	state.set(node.group.Entity, merged)

	event := ProgressEvent{RunID: runID, Node: name, Status: NodeCompleted, At: time.Now()}
	if len(failed) > 0 {
		w.setState(name, StateFailedPartial)
		event.Status = NodeFailedPartial
		event.Failed = failed
		event.Error = fmt.Sprintf("%d of %d tasks exhausted", len(failed), len(node.group.Tasks))
	} else {
		w.setState(name, StateCompleted)
	}
	emit(w.sink, event)
}
