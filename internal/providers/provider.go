// Package providers defines the provider profiles, the selector that turns a
// provider tag into connection parameters, and the common types shared by
// all completion backends (OpenAI-compatible, Anthropic, Gemini).
//
// Each backend lives in its own sub-package and implements the Completer
// interface.
package providers

import (
	"context"
	"time"
)

type (
	// Message is a single turn in a conversation (role + text content).
	Message struct {
		Role    string
		Content string
	}

	// Usage holds token usage stats.
	Usage struct {
		InputTokens  int
		OutputTokens int
	}

	// CompletionRequest is a normalized chat-completion request.
	CompletionRequest struct {
		// Model is the fully qualified model id (aliases already resolved).
		Model    string
		Messages []Message
		// Temperature is sent whenever set, zero included; nil leaves it
		// to the provider.
		Temperature *float64
		// MaxTokens bounds the reply length; 0 leaves it to the provider.
		MaxTokens int
	}

	// Completion is a normalized provider response.
	Completion struct {
		ID      string
		Model   string
		Content string
		Usage   Usage
	}
)

// Completer is a chat-completion backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// Conversation roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ProviderTimeout is the default per-request HTTP timeout for backends.
const ProviderTimeout = 30 * time.Second

// StatusCoder is implemented by backend errors that carry an upstream HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Float64 returns a pointer to v, for CompletionRequest.Temperature.
func Float64(v float64) *float64 { return &v }
