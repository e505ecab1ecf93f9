package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nulpointcorp/agentkit/internal/agent"
	"github.com/nulpointcorp/agentkit/internal/providers"
	anthropicprov "github.com/nulpointcorp/agentkit/internal/providers/anthropic"
	geminiprov "github.com/nulpointcorp/agentkit/internal/providers/gemini"
	"github.com/nulpointcorp/agentkit/internal/providers/openaicompat"
)

// Attribution headers sent to the OpenRouter gateway.
const (
	gatewayReferer = "https://github.com/nulpointcorp/agentkit"
	gatewayTitle   = "agentkit"
)

// NewCompleter builds the backend matching the wire protocol of rc.
func NewCompleter(ctx context.Context, rc providers.ResolvedConfig, timeout time.Duration) (providers.Completer, error) {
	switch rc.Kind {
	case providers.KindOpenAI:
		return newOpenAICompat(rc, timeout), nil

	case providers.KindAnthropic:
		return anthropicprov.New(rc.Credential,
			anthropicprov.WithBaseURL(rc.BaseURL),
			anthropicprov.WithTimeout(timeout),
		), nil

	case providers.KindGemini:
		p, err := geminiprov.New(ctx, rc.Credential,
			geminiprov.WithBaseURL(rc.BaseURL),
			geminiprov.WithTimeout(timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("app: gemini client: %w", err)
		}
		return p, nil
	}

	return nil, fmt.Errorf("app: provider %s: unsupported kind %q", rc.Tag, rc.Kind)
}

// NewToolCaller builds a tool-capable backend. Only OpenAI-compatible
// profiles support function calling.
func NewToolCaller(rc providers.ResolvedConfig, timeout time.Duration) (agent.ToolCaller, error) {
	if rc.Kind != providers.KindOpenAI {
		return nil, fmt.Errorf("app: provider %s (%s) does not support tool calling; use an OpenAI-compatible provider", rc.Tag, rc.Kind)
	}
	return newOpenAICompat(rc, timeout), nil
}

func newOpenAICompat(rc providers.ResolvedConfig, timeout time.Duration) *openaicompat.Provider {
	opts := []openaicompat.Option{openaicompat.WithTimeout(timeout)}
	if rc.Tag == providers.TagGateway {
		opts = append(opts,
			openaicompat.WithHeader("HTTP-Referer", gatewayReferer),
			openaicompat.WithHeader("X-Title", gatewayTitle),
		)
	}
	return openaicompat.New(rc.Tag, rc.Credential, rc.BaseURL, opts...)
}
