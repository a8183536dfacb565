package shipbook

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventCollector struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (c *eventCollector) OnEvent(e ProgressEvent) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *eventCollector) snapshot() []ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ProgressEvent(nil), c.events...)
}

func TestParseTopology(t *testing.T) {
	cases := []struct {
		in      string
		want    Topology
		wantErr bool
	}{
		{"", TopologyParallel, false},
		{"parallel", TopologyParallel, false},
		{"chained", TopologyChained, false},
		{"sequential", TopologyChained, false},
		{"ring", TopologyParallel, true},
	}
	for _, tc := range cases {
		got, err := ParseTopology(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestWorkflowEmitsPairedEventsPerNode(t *testing.T) {
	sink := &eventCollector{}
	x, err := NewForTesting(scenarioInvoker(bielefeldResponses), WithProgressSink(sink))
	require.NoError(t, err)

	_, err = x.Run(context.Background(), bielefeldText)
	require.NoError(t, err)

	events := sink.snapshot()
	require.Len(t, events, 8)

	byNode := make(map[string][]ProgressEvent)
	for _, e := range events {
		byNode[e.Node] = append(byNode[e.Node], e)
	}
	for _, name := range []string{"pickup", "delivery", "billing", "shipment"} {
		pair := byNode[name]
		require.Len(t, pair, 2, "node %s", name)
		assert.Equal(t, NodeStarted, pair[0].Status)
		assert.Equal(t, NodeCompleted, pair[1].Status)
		assert.Equal(t, pair[0].RunID, pair[1].RunID)
	}
}

func TestWorkflowChainedRunsNodesInDeclarationOrder(t *testing.T) {
	sink := &eventCollector{}
	x, err := NewForTesting(scenarioInvoker(bielefeldResponses),
		WithTopology(TopologyChained),
		WithProgressSink(sink))
	require.NoError(t, err)

	_, err = x.Run(context.Background(), bielefeldText)
	require.NoError(t, err)

	var order []string
	for _, e := range sink.snapshot() {
		order = append(order, e.Node+":"+string(e.Status))
	}
	assert.Equal(t, []string{
		"pickup:started", "pickup:completed",
		"delivery:started", "delivery:completed",
		"billing:started", "billing:completed",
		"shipment:started", "shipment:completed",
	}, order)
}

func TestWorkflowDegradesFailedNodeToNull(t *testing.T) {
	inv := scenarioInvoker(bielefeldResponses)
	for _, schema := range []string{"billing_basis", "billing_location", "billing_communication"} {
		inv.FailFirst[schema] = 10
	}

	sink := &eventCollector{}
	x, err := NewForTesting(inv, WithProgressSink(sink))
	require.NoError(t, err)

	record, err := x.Run(context.Background(), bielefeldText)
	require.NoError(t, err)
	require.NotNil(t, record)

	// the failed entity is fully materialized with nulls
	for key, value := range record.BillingAddress {
		assert.Nil(t, value, "billing key %s", key)
	}
	assert.Contains(t, record.BillingAddress, "vat_id")

	// the other entities are untouched
	assert.Equal(t, "Bielefeld", record.PickupAddress["city"])
	assert.Len(t, record.Items(), 2)

	states := x.NodeStates()
	assert.Equal(t, StateFailedPartial, states["billing"])
	assert.Equal(t, StateCompleted, states["pickup"])
	assert.Equal(t, StateCompleted, states["delivery"])
	assert.Equal(t, StateCompleted, states["shipment"])

	var failedEvent *ProgressEvent
	for _, e := range sink.snapshot() {
		if e.Node == "billing" && e.Status == NodeFailedPartial {
			e := e
			failedEvent = &e
		}
	}
	require.NotNil(t, failedEvent)
	assert.ElementsMatch(t, []string{"billing_basis", "billing_location", "billing_communication"}, failedEvent.Failed)
	assert.Equal(t, "3 of 3 tasks exhausted", failedEvent.Error)
}

func TestWorkflowPartialNodeKeepsSurvivingFields(t *testing.T) {
	inv := scenarioInvoker(bielefeldResponses)
	inv.FailFirst["pickup_time"] = 10

	x, err := NewForTesting(inv)
	require.NoError(t, err)

	record, err := x.Run(context.Background(), bielefeldText)
	require.NoError(t, err)

	assert.Equal(t, "Technik GmbH", record.PickupAddress["company"])
	assert.Nil(t, record.PickupAddress["pickup_date"])
	assert.Nil(t, record.PickupAddress["pickup_time_from"])
	assert.Equal(t, StateFailedPartial, x.NodeStates()["pickup"])
}

func TestWorkflowEverythingFailsStillYieldsRecord(t *testing.T) {
	x, err := NewForTesting(NewScriptedInvoker()) // no responses scripted at all
	require.NoError(t, err)

	record, err := x.Run(context.Background(), "gibberish")
	require.NoError(t, err)
	require.NotNil(t, record)

	for key := range EntityVocabulary(EntityPickup) {
		v, ok := record.PickupAddress[key]
		assert.True(t, ok, "pickup key %s missing", key)
		assert.Nil(t, v)
	}
	assert.NotNil(t, record.Items())
	assert.Empty(t, record.Items())

	for node, state := range x.NodeStates() {
		assert.Equal(t, StateFailedPartial, state, "node %s", node)
	}
}

func TestWorkflowNodeStatesStartPending(t *testing.T) {
	x, err := NewForTesting(NewScriptedInvoker())
	require.NoError(t, err)
	for node, state := range x.NodeStates() {
		assert.Equal(t, StatePending, state, "node %s", node)
	}
}
