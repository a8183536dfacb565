package shipbook

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ScriptedInvoker replays canned responses keyed by the call's schema name,
// so tests can drive the whole workflow without a real client.
type ScriptedInvoker struct {
	mu        sync.Mutex
	Responses map[string]string // schema -> JSON payload
	Errors    map[string]error  // schema -> permanent failure
	FailFirst map[string]int    // schema -> leading attempts to fail transiently
	calls     map[string]int
}

func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{
		Responses: make(map[string]string),
		Errors:    make(map[string]error),
		FailFirst: make(map[string]int),
		calls:     make(map[string]int),
	}
}

func (s *ScriptedInvoker) Generate(_ context.Context, call CallSpec) ([]byte, error) {
	s.mu.Lock()
	s.calls[call.Schema]++
	attempt := s.calls[call.Schema]
	failFirst := s.FailFirst[call.Schema]
	err := s.Errors[call.Schema]
	resp, ok := s.Responses[call.Schema]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if attempt <= failFirst {
		return nil, &TransientCallError{Kind: CallTransport, Err: fmt.Errorf("scripted transient failure %d", attempt)}
	}
	if !ok {
		return nil, &TransientCallError{Kind: CallTransport, Err: fmt.Errorf("no scripted response for %q", call.Schema)}
	}
	return []byte(resp), nil
}

// Calls reports how many times the schema was requested.
func (s *ScriptedInvoker) Calls(schema string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[schema]
}

// InstrumentedInvoker wraps another invoker and tracks the in-flight call
// count and its high-water mark, for asserting the worker cap.
type InstrumentedInvoker struct {
	Inner Invoker
	Delay time.Duration // hold each call open long enough to overlap

	running atomic.Int64
	peak    atomic.Int64
}

func (iv *InstrumentedInvoker) Generate(ctx context.Context, call CallSpec) ([]byte, error) {
	n := iv.running.Add(1)
	for {
		peak := iv.peak.Load()
		if n <= peak || iv.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	defer iv.running.Add(-1)

	if iv.Delay > 0 {
		select {
		case <-time.After(iv.Delay):
		case <-ctx.Done():
			return nil, classifyCallError(ctx.Err())
		}
	}
	return iv.Inner.Generate(ctx, call)
}

// Peak returns the largest number of concurrently running calls observed.
func (iv *InstrumentedInvoker) Peak() int { return int(iv.peak.Load()) }

// NewForTesting builds an extractor over a scripted invoker and the
// embedded prompt set, without requiring a real client or credentials.
func NewForTesting(invoker Invoker, optFns ...func(*Options)) (*Extractor, error) {
	prompts, err := DefaultPromptProvider()
	if err != nil {
		return nil, err
	}
	return New(invoker, prompts, optFns...)
}
