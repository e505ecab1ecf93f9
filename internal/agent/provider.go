package agent

import (
	"context"

	openaiSDK "github.com/openai/openai-go/v3"
)

// ToolCaller is a backend able to run one tool-aware chat completion.
// *openaicompat.Provider satisfies it.
type ToolCaller interface {
	NewChatCompletion(ctx context.Context, params openaiSDK.ChatCompletionNewParams) (*openaiSDK.ChatCompletion, error)
}

// ModelProvider resolves a model name to a backend and a model id.
// An empty name selects the provider's default model.
type ModelProvider interface {
	Model(name string) (ToolCaller, string)
}

// StaticProvider serves every model name from one backend.
type StaticProvider struct {
	Caller       ToolCaller
	DefaultModel string
}

func (p StaticProvider) Model(name string) (ToolCaller, string) {
	if name == "" {
		name = p.DefaultModel
	}
	return p.Caller, name
}
