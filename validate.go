package shipbook

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema compiles a field group's JSON-Schema map once, at task
// construction time.
func compileSchema(g *FieldGroup) (*jsonschema.Schema, error) {
	b, err := json.Marshal(g.JSONSchemaMap())
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", g.Name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := g.Name + ".schema.json"
	if err := compiler.AddResource(resource, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", g.Name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", g.Name, err)
	}
	return schema, nil
}

// validateOutput checks raw model output against the compiled group schema
// and returns the decoded object on success. Enum membership and positive
// numeric bounds are enforced here, so an out-of-set load carrier or a
// quantity <= 0 fails the attempt instead of being coerced.
func validateOutput(schema *jsonschema.Schema, raw []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal output: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("output does not match schema: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("output is not a JSON object")
	}
	return obj, nil
}
