package shipbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// CallSpec describes one outbound model call. Schema is the field-group name
// used as the forced output-shape selector; System carries the rendered
// prompt template; Document is the raw input text.
type CallSpec struct {
	Schema   string
	Model    string
	System   string
	Document string
}

// Invoker is the boundary to the model provider. Implementations must return
// raw JSON bytes or an error classifiable by classifyCallError.
type Invoker interface {
	Generate(ctx context.Context, call CallSpec) ([]byte, error)
}

// genaiInvoker calls the Gemini API via Google GenAI.
type genaiInvoker struct {
	client *genai.Client
	log    *slog.Logger
}

// NewGenaiInvoker wraps a genai client as an Invoker.
func NewGenaiInvoker(client *genai.Client, log *slog.Logger) Invoker {
	if log == nil {
		log = slog.Default()
	}
	return &genaiInvoker{client: client, log: log}
}

func (gv *genaiInvoker) Generate(ctx context.Context, call CallSpec) ([]byte, error) {
	if gv.client == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	gv.log.Debug("generating content",
		"schema", call.Schema,
		"model", call.Model,
		"system_length", len(call.System),
		"document_length", len(call.Document))

	temperature := float32(0) // deterministic extraction
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
		MaxOutputTokens:   1000,
		SystemInstruction: genai.NewContentFromText(call.System, genai.RoleUser),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(call.Document)}, genai.RoleUser),
	}

	resp, err := gv.client.Models.GenerateContent(ctx, call.Model, contents, config)
	if err != nil {
		return nil, classifyCallError(err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no text in response")
	}

	gv.log.Debug("generated content", "schema", call.Schema, "response_length", len(text))
	return []byte(text), nil
}

// classifyCallError sorts provider failures into the transient taxonomy so
// the task retry loop can treat timeout, rate limiting and transport faults
// uniformly.
func classifyCallError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransientCallError{Kind: CallTimeout, Err: err}
	case isRateLimited(err):
		return &TransientCallError{Kind: CallRateLimited, Err: err}
	default:
		return &TransientCallError{Kind: CallTransport, Err: err}
	}
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}
