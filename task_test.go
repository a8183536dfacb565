package shipbook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invokerFunc func(ctx context.Context, call CallSpec) ([]byte, error)

func (f invokerFunc) Generate(ctx context.Context, call CallSpec) ([]byte, error) {
	return f(ctx, call)
}

func newTestTask(t *testing.T, group string, inv Invoker, cfg TaskConfig) *Task {
	t.Helper()
	prompts, err := DefaultPromptProvider()
	require.NoError(t, err)
	task, err := NewTask(groupByName(t, group), inv, prompts, cfg, nil)
	require.NoError(t, err)
	return task
}

func TestTaskExecuteNormalizesMissingOptionals(t *testing.T) {
	inv := NewScriptedInvoker()
	inv.Responses["pickup_time"] = `{"pickup_date": "2025-03-03"}`

	task := newTestTask(t, "pickup_time", inv, TaskConfig{})
	out, err := task.Execute(context.Background(), "pickup on March 3rd")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03", out["pickup_date"])
	// unset optionals materialize as explicit nulls
	v, ok := out["pickup_time_from"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 1, inv.Calls("pickup_time"))
}

func TestTaskExecuteDropsUndeclaredKeys(t *testing.T) {
	inv := NewScriptedInvoker()
	inv.Responses["shipment_notes"] = `{"shipment_notes": "fragile cargo", "confidence": 0.93}`

	task := newTestTask(t, "shipment_notes", inv, TaskConfig{})
	out, err := task.Execute(context.Background(), "handle with care")
	require.NoError(t, err)

	assert.Equal(t, "fragile cargo", out["shipment_notes"])
	_, leaked := out["confidence"]
	assert.False(t, leaked)
}

func TestTaskExecuteStripsCodeFences(t *testing.T) {
	inv := NewScriptedInvoker()
	inv.Responses["billing_communication"] = "```json\n{\"vat_id\": \"DE123456789\"}\n```"

	task := newTestTask(t, "billing_communication", inv, TaskConfig{})
	out, err := task.Execute(context.Background(), "VAT DE123456789")
	require.NoError(t, err)
	assert.Equal(t, "DE123456789", out["vat_id"])
}

func TestTaskExecuteRetriesTransientFailure(t *testing.T) {
	inv := NewScriptedInvoker()
	inv.Responses["pickup_location"] = `{"street": "Industriestr. 42", "postal_code": "33602", "city": "Bielefeld"}`
	inv.FailFirst["pickup_location"] = 1

	task := newTestTask(t, "pickup_location", inv, TaskConfig{MaxAttempts: 2})
	out, err := task.Execute(context.Background(), "Industriestr. 42, 33602 Bielefeld")
	require.NoError(t, err)
	assert.Equal(t, "Bielefeld", out["city"])
	assert.Equal(t, 2, inv.Calls("pickup_location"))
}

func TestTaskExecuteExhaustsAttemptBudget(t *testing.T) {
	inv := NewScriptedInvoker()
	inv.Responses["pickup_basis"] = `{"company": "Technik GmbH"}`
	inv.FailFirst["pickup_basis"] = 10

	task := newTestTask(t, "pickup_basis", inv, TaskConfig{MaxAttempts: 2})
	_, err := task.Execute(context.Background(), "Technik GmbH")

	var exhausted *TaskExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "pickup_basis", exhausted.Task)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Equal(t, 2, inv.Calls("pickup_basis"))

	var transient *TransientCallError
	assert.ErrorAs(t, exhausted.Last, &transient)
}

func TestTaskExecuteMalformedOutputConsumesAttempts(t *testing.T) {
	inv := NewScriptedInvoker()
	inv.Responses["delivery_basis"] = `the company is probably Siemens`

	task := newTestTask(t, "delivery_basis", inv, TaskConfig{MaxAttempts: 2})
	_, err := task.Execute(context.Background(), "deliver to Siemens")

	var exhausted *TaskExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, inv.Calls("delivery_basis"))

	var malformed *MalformedOutputError
	assert.ErrorAs(t, exhausted.Last, &malformed)
}

func TestTaskExecuteSchemaViolationIsRetriedNotAccepted(t *testing.T) {
	inv := NewScriptedInvoker()
	// required company missing on every attempt
	inv.Responses["billing_basis"] = `{"salutation": "Mr."}`

	task := newTestTask(t, "billing_basis", inv, TaskConfig{MaxAttempts: 2})
	_, err := task.Execute(context.Background(), "bill Mr. Fischer")

	var exhausted *TaskExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, inv.Calls("billing_basis"))
}

func TestTaskExecuteTimeoutCountsAsAttempt(t *testing.T) {
	var calls int
	slow := invokerFunc(func(ctx context.Context, _ CallSpec) ([]byte, error) {
		calls++
		<-ctx.Done()
		return nil, classifyCallError(ctx.Err())
	})

	task := newTestTask(t, "pickup_communication", slow, TaskConfig{
		MaxAttempts: 2,
		CallTimeout: 5 * time.Millisecond,
	})
	_, err := task.Execute(context.Background(), "call +49123456")

	var exhausted *TaskExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, calls)

	var transient *TransientCallError
	require.ErrorAs(t, exhausted.Last, &transient)
	assert.Equal(t, CallTimeout, transient.Kind)
}

func TestTaskExecuteBackoffDoubles(t *testing.T) {
	var stamps []time.Time
	inv := invokerFunc(func(context.Context, CallSpec) ([]byte, error) {
		stamps = append(stamps, time.Now())
		return nil, &TransientCallError{Kind: CallTransport, Err: errors.New("down")}
	})

	task := newTestTask(t, "delivery_time", inv, TaskConfig{
		MaxAttempts: 3,
		Backoff:     20 * time.Millisecond,
	})
	_, err := task.Execute(context.Background(), "afternoon delivery")
	require.Error(t, err)
	require.Len(t, stamps, 3)

	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.GreaterOrEqual(t, second, 40*time.Millisecond)
}

func TestNewTaskRejectsNilCollaborators(t *testing.T) {
	prompts, err := DefaultPromptProvider()
	require.NoError(t, err)
	group := groupByName(t, "pickup_basis")

	_, err = NewTask(group, nil, prompts, TaskConfig{}, nil)
	assert.ErrorIs(t, err, ErrNilInvoker)

	_, err = NewTask(group, NewScriptedInvoker(), nil, TaskConfig{}, nil)
	assert.ErrorIs(t, err, ErrNilPrompts)
}
