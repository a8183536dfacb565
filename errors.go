package shipbook

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned during pre-flight when no model credential is configured.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")

// ErrBinaryInput is returned when the input payload does not look like text.
var ErrBinaryInput = errors.New("input is not a text document")

var ErrNilInvoker = errors.New("invoker is required")
var ErrNilPrompts = errors.New("prompt provider is required")
var ErrPromptMissing = errors.New("prompt template not found")

// CallKind classifies a transient model-call failure.
type CallKind string

const (
	CallTimeout     CallKind = "timeout"
	CallRateLimited CallKind = "rate_limited"
	CallTransport   CallKind = "transport"
)

// TransientCallError wraps a retryable failure at the model boundary.
type TransientCallError struct {
	Kind CallKind
	Err  error
}

func (e *TransientCallError) Error() string {
	return fmt.Sprintf("transient call error (%s): %v", e.Kind, e.Err)
}

func (e *TransientCallError) Unwrap() error { return e.Err }

// MalformedOutputError means the model produced output that failed schema
// validation for the field group it was asked to fill.
type MalformedOutputError struct {
	Task string
	Err  error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s: malformed model output: %v", e.Task, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// TaskExhaustedError is recorded when an extraction task has spent its whole
// attempt budget. It never propagates past the owning group.
type TaskExhaustedError struct {
	Task     string
	Attempts int
	Last     error
}

func (e *TaskExhaustedError) Error() string {
	return fmt.Sprintf("%s: exhausted after %d attempts: %v", e.Task, e.Attempts, e.Last)
}

func (e *TaskExhaustedError) Unwrap() error { return e.Last }

// SchemaViolationError marks a key that arrived at a merge step without being
// part of the entity vocabulary. The merge drops the key and records the
// violation; it never aborts assembly.
type SchemaViolationError struct {
	Entity string
	Source string // producing task
	Key    string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s: key %q from %s is outside the declared schema", e.Entity, e.Key, e.Source)
}
