// Package openaicompat provides a generic OpenAI-compatible completion backend.
// Use it for any service that implements the OpenAI chat completions API:
// the OpenRouter gateway, OpenAI itself, or a self-hosted endpoint.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaiSDK "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nulpointcorp/agentkit/internal/providers"
)

// Provider is a configurable OpenAI-compatible backend.
type Provider struct {
	name       string
	apiKey     string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	headers    map[string]string
	client     openaiSDK.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Default: providers.ProviderTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithMaxRetries overrides the SDK's retry count. Negative keeps the SDK default.
func WithMaxRetries(n int) Option {
	return func(p *Provider) { p.maxRetries = n }
}

// WithHeader adds a static header to every request (e.g. OpenRouter's
// HTTP-Referer / X-Title attribution headers).
func WithHeader(key, value string) Option {
	return func(p *Provider) { p.headers[key] = value }
}

// New creates a new OpenAI-compatible Provider.
//
//   - name:    provider tag used in logs and metrics.
//   - apiKey:  API key sent as "Authorization: Bearer <key>".
//   - baseURL: API base URL, e.g. "https://openrouter.ai/api/v1".
func New(name, apiKey, baseURL string, opts ...Option) *Provider {
	p := &Provider{
		name:       name,
		apiKey:     apiKey,
		baseURL:    baseURL,
		timeout:    providers.ProviderTimeout,
		maxRetries: -1,
		headers:    make(map[string]string),
	}
	for _, o := range opts {
		o(p)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithHTTPClient(&http.Client{Timeout: p.timeout}),
	}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL))
	}
	if p.maxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(p.maxRetries))
	}
	for k, v := range p.headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	p.client = openaiSDK.NewClient(reqOpts...)
	return p
}

func (p *Provider) Name() string { return p.name }

// BaseURL returns the configured endpoint.
func (p *Provider) BaseURL() string { return p.baseURL }

// Complete sends one chat completion and returns the first choice's text.
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	if p.apiKey == "" {
		return nil, &providers.MissingCredentialError{Provider: p.name}
	}
	return p.handleResponse(ctx, p.buildParams(req))
}

// NewChatCompletion exposes the raw SDK call for callers that need the full
// response (tool calls, finish reasons), such as the agent runtime.
func (p *Provider) NewChatCompletion(
	ctx context.Context,
	params openaiSDK.ChatCompletionNewParams,
) (*openaiSDK.ChatCompletion, error) {
	if p.apiKey == "" {
		return nil, &providers.MissingCredentialError{Provider: p.name}
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.toProviderError(err)
	}
	return resp, nil
}

func (p *Provider) buildParams(req *providers.CompletionRequest) openaiSDK.ChatCompletionNewParams {
	msgs := make([]openaiSDK.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, ToSDKMessage(m.Role, m.Content))
	}

	params := openaiSDK.ChatCompletionNewParams{
		Messages: msgs,
		Model:    req.Model,
	}

	if req.Temperature != nil {
		params.Temperature = openaiSDK.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openaiSDK.Int(int64(req.MaxTokens))
	}

	return params
}

func (p *Provider) handleResponse(
	ctx context.Context,
	params openaiSDK.ChatCompletionNewParams,
) (*providers.Completion, error) {
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.toProviderError(err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &providers.Completion{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: content,
		Usage: providers.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// ProviderError is a structured error returned by an OpenAI-compatible API.
type ProviderError struct {
	Name       string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status=%d)", e.Name, e.Message, e.StatusCode)
}

func (e *ProviderError) HTTPStatus() int { return e.StatusCode }

func (p *Provider) toProviderError(err error) error {
	var apierr *openaiSDK.Error
	if errors.As(err, &apierr) {
		return &ProviderError{
			Name:       p.name,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
		}
	}
	return err
}

// ToSDKMessage maps a role/content pair onto the SDK message union.
// Unknown roles are sent as user messages.
func ToSDKMessage(role, content string) openaiSDK.ChatCompletionMessageParamUnion {
	switch strings.ToLower(role) {
	case "developer":
		return openaiSDK.DeveloperMessage(content)
	case "system":
		return openaiSDK.SystemMessage(content)
	case "assistant":
		return openaiSDK.AssistantMessage(content)
	default:
		return openaiSDK.UserMessage(content)
	}
}
