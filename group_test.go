package shipbook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pickupResponses = map[string]string{
	"pickup_basis":         `{"company": "Technik GmbH"}`,
	"pickup_location":      `{"street": "Industriestr. 42", "postal_code": "33602", "city": "Bielefeld"}`,
	"pickup_time":          `{"pickup_date": "2025-03-03"}`,
	"pickup_communication": `{"phone": "+49123456789"}`,
}

func newPickupGroup(t *testing.T, inv Invoker, maxWorkers int) *Group {
	t.Helper()
	prompts, err := DefaultPromptProvider()
	require.NoError(t, err)

	var tasks []*Task
	groups := GroupsForEntity(EntityPickup)
	for i := range groups {
		task, err := NewTask(&groups[i], inv, prompts, TaskConfig{}, nil)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	return NewGroup("pickup", EntityPickup, tasks, maxWorkers, nil)
}

func TestGroupExecuteFillsEverySlot(t *testing.T) {
	inv := NewScriptedInvoker()
	for schema, resp := range pickupResponses {
		inv.Responses[schema] = resp
	}

	group := newPickupGroup(t, inv, 2)
	results := group.Execute(context.Background(), "pickup at Technik GmbH, Bielefeld")

	require.Len(t, results, 4)
	for name, res := range results {
		assert.False(t, res.Failed(), "slot %s failed: %v", name, res.Err)
		assert.NotNil(t, res.Data)
	}
	assert.Equal(t, "Bielefeld", results["pickup_location"].Data["city"])
}

func TestGroupExecuteIsolatesMemberFailure(t *testing.T) {
	inv := NewScriptedInvoker()
	for schema, resp := range pickupResponses {
		inv.Responses[schema] = resp
	}
	inv.FailFirst["pickup_time"] = 10 // outlasts any attempt budget

	group := newPickupGroup(t, inv, 2)
	results := group.Execute(context.Background(), "pickup at Technik GmbH")

	require.Len(t, results, 4)
	assert.True(t, results["pickup_time"].Failed())

	var exhausted *TaskExhaustedError
	require.ErrorAs(t, results["pickup_time"].Err, &exhausted)
	assert.Equal(t, "pickup_time", exhausted.Task)

	// siblings finished untouched
	assert.False(t, results["pickup_basis"].Failed())
	assert.False(t, results["pickup_location"].Failed())
	assert.False(t, results["pickup_communication"].Failed())
}

func TestGroupExecuteHonorsWorkerCap(t *testing.T) {
	scripted := NewScriptedInvoker()
	for schema, resp := range pickupResponses {
		scripted.Responses[schema] = resp
	}
	inv := &InstrumentedInvoker{Inner: scripted, Delay: 20 * time.Millisecond}

	group := newPickupGroup(t, inv, 2)
	group.Execute(context.Background(), "pickup at Technik GmbH")

	assert.LessOrEqual(t, inv.Peak(), 2)
	assert.GreaterOrEqual(t, inv.Peak(), 1)
}
