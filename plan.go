package shipbook

import (
	"fmt"
	"strings"
)

// Plan describes the configured workflow without making any model calls.
// It exists for the operational tradeoff behind the topology choice: how
// many outbound calls a run will issue, and how many can be in flight at
// once.
type Plan struct {
	Topology Topology
	Nodes    []PlanNode
}

// PlanNode describes one task group and its merge step.
type PlanNode struct {
	Name       string
	Entity     string
	MaxWorkers int
	Tasks      []PlanTask
}

// PlanTask describes one member extraction call.
type PlanTask struct {
	Name        string
	Prompt      string
	Model       string
	MaxAttempts int
	Fields      []string
}

// Plan renders the extractor's static execution plan.
func (x *Extractor) Plan() *Plan {
	p := &Plan{Topology: x.workflow.topology}
	for _, node := range x.workflow.nodes {
		pn := PlanNode{
			Name:       node.group.Name,
			Entity:     node.group.Entity,
			MaxWorkers: node.group.MaxWorkers,
		}
		for _, task := range node.group.Tasks {
			pn.Tasks = append(pn.Tasks, PlanTask{
				Name:        task.Name(),
				Prompt:      task.group.Prompt,
				Model:       task.cfg.Model,
				MaxAttempts: task.cfg.MaxAttempts,
				Fields:      task.group.FieldNames(),
			})
		}
		p.Nodes = append(p.Nodes, pn)
	}
	return p
}

// CallBudget returns the minimum and maximum number of outbound model calls
// one run can issue (all first attempts succeed vs. every budget spent).
func (p *Plan) CallBudget() (min, max int) {
	for _, node := range p.Nodes {
		for _, task := range node.Tasks {
			min++
			max += task.MaxAttempts
		}
	}
	return min, max
}

// PeakConcurrency is the largest number of model calls that can be in
// flight simultaneously under the plan's topology.
func (p *Plan) PeakConcurrency() int {
	peak := 0
	for _, node := range p.Nodes {
		inFlight := node.MaxWorkers
		if len(node.Tasks) < inFlight {
			inFlight = len(node.Tasks)
		}
		if p.Topology == TopologyChained {
			if inFlight > peak {
				peak = inFlight
			}
		} else {
			peak += inFlight
		}
	}
	return peak
}

// Explain formats the plan as an ASCII tree.
func (x *Extractor) Explain() string {
	p := x.Plan()
	minCalls, maxCalls := p.CallBudget()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking Extraction Plan (topology=%s, calls=%d..%d, peak_concurrency=%d)\n",
		p.Topology, minCalls, maxCalls, p.PeakConcurrency())

	for i, node := range p.Nodes {
		nodeConnector := "├─ "
		childPrefix := "│  "
		if i == len(p.Nodes)-1 {
			nodeConnector = "└─ "
			childPrefix = "   "
		}
		fmt.Fprintf(&sb, "%sgroup %q (entity=%s, workers=%d)\n", nodeConnector, node.Name, node.Entity, node.MaxWorkers)
		for _, task := range node.Tasks {
			fmt.Fprintf(&sb, "%s├─ call %q (prompt=%s, model=%s, attempts<=%d, fields=%v)\n",
				childPrefix, task.Name, task.Prompt, task.Model, task.MaxAttempts, task.Fields)
		}
		fmt.Fprintf(&sb, "%s└─ merge -> %s\n", childPrefix, node.Entity)
	}
	sb.WriteString("assembly -> BookingRecord\n")
	return sb.String()
}
