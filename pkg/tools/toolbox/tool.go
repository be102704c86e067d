package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Handler runs a tool with raw JSON arguments and returns text for the agent.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a named, independently invocable function with a declared input schema.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler

	resolved *jsonschema.Resolved
}

// New builds a Tool from a raw JSON schema. The schema is compiled once so
// that arguments can be validated before the handler runs.
func New(name, description string, schema json.RawMessage, h Handler) (Tool, error) {
	t := Tool{Name: name, Description: description, InputSchema: schema, Handler: h}
	if len(schema) == 0 {
		return t, nil
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(schema, &s); err != nil {
		return Tool{}, fmt.Errorf("toolbox: %s: parse schema: %w", name, err)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return Tool{}, fmt.Errorf("toolbox: %s: resolve schema: %w", name, err)
	}
	t.resolved = resolved

	return t, nil
}

// NewTyped builds a Tool whose schema is inferred from In. The handler
// receives arguments already decoded into In.
func NewTyped[In any](name, description string, fn func(ctx context.Context, in In) (string, error)) (Tool, error) {
	s, err := jsonschema.For[In](nil)
	if err != nil {
		return Tool{}, fmt.Errorf("toolbox: %s: infer schema: %w", name, err)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return Tool{}, fmt.Errorf("toolbox: %s: marshal schema: %w", name, err)
	}

	return New(name, description, raw, func(ctx context.Context, input json.RawMessage) (string, error) {
		var in In
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, in)
	})
}

// MustTyped is NewTyped for package-level tool definitions; it panics on a
// schema that cannot be inferred.
func MustTyped[In any](name, description string, fn func(ctx context.Context, in In) (string, error)) Tool {
	t, err := NewTyped(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Validate checks input against the tool's schema. Tools without a compiled
// schema accept any JSON object.
func (t Tool) Validate(input json.RawMessage) error {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	var instance any
	if err := json.Unmarshal(input, &instance); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	if t.resolved == nil {
		return nil
	}

	if err := t.resolved.Validate(instance); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}

	return nil
}
