// Package tools defines the function-tool abstraction exposed to models by
// the agent runtime, plus the built-in tools used by the agent presets.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidArguments is wrapped by tools whose JSON arguments fail to decode.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Tool is a callable function a model may request by name.
type Tool interface {
	// Name is the function name as exposed to the model.
	Name() string

	// Description is shown to the model.
	Description() string

	// Parameters is the JSON Schema of the function's input object.
	Parameters() map[string]any

	// Invoke runs the tool with the raw JSON arguments sent by the model.
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// Func is the handler signature behind a FunctionTool.
type Func func(ctx context.Context, args json.RawMessage) (string, error)

// FunctionTool is a Tool backed by a Go function.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

// New creates a FunctionTool. A nil parameters schema declares a function
// without arguments.
func New(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	if parameters == nil {
		parameters = ObjectSchema(nil)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Invoke calls the backing function.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	if t.fn == nil {
		return "", fmt.Errorf("tools: %s has no handler", t.name)
	}
	return t.fn(ctx, args)
}

// StringParam describes one required string property of a tool schema.
type StringParam struct {
	Name        string
	Description string
}

// ObjectSchema builds an object schema whose properties are all required strings.
func ObjectSchema(params []StringParam) map[string]any {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		props[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		required = append(required, p.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// decodeArgs unmarshals args into dst. Empty input decodes as {}.
func decodeArgs(tool string, args json.RawMessage, dst any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("tools: %s: %w: %v", tool, ErrInvalidArguments, err)
	}
	return nil
}
