// Package agent runs function-calling agents on top of an OpenAI-compatible
// backend.
//
// An agent is described by an immutable Descriptor. Build validates it and
// binds it to a ModelProvider; the resulting Agent runs the tool loop: the
// model is called with the tool schemas, requested tools are invoked and
// their output is appended, until the model answers in plain text or the
// turn budget is exhausted.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	openaiSDK "github.com/openai/openai-go/v3"

	"github.com/nulpointcorp/agentkit/internal/metrics"
	"github.com/nulpointcorp/agentkit/internal/providers"
	"github.com/nulpointcorp/agentkit/internal/tools"
)

// DefaultMaxTurns bounds the model round trips of one Run.
const DefaultMaxTurns = 10

// Run outcomes reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeMaxTurns = "max_turns"
	outcomeUnknown  = "unknown"
)

// Descriptor is the static definition of an agent. It is a value: the
// With* methods return modified copies and never touch the receiver.
type Descriptor struct {
	Name         string
	Instructions string
	Tools        []tools.Tool
	// Provider is the provider tag the agent runs against.
	Provider string
	// Model overrides the provider's default model when set.
	Model string
}

// WithTool returns a copy of d with t appended to its tools.
func (d Descriptor) WithTool(t tools.Tool) Descriptor {
	d.Tools = append(slices.Clone(d.Tools), t)
	return d
}

// WithInstructions returns a copy of d with new instructions.
func (d Descriptor) WithInstructions(instructions string) Descriptor {
	d.Instructions = instructions
	d.Tools = slices.Clone(d.Tools)
	return d
}

// WithModel returns a copy of d pinned to model.
func (d Descriptor) WithModel(model string) Descriptor {
	d.Model = model
	d.Tools = slices.Clone(d.Tools)
	return d
}

func (d Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("agent: %w: name is required", ErrInvalidAgent)
	}
	if d.Provider == "" {
		return fmt.Errorf("agent: %s: %w: provider is required", d.Name, ErrInvalidAgent)
	}
	seen := make(map[string]struct{}, len(d.Tools))
	for i, t := range d.Tools {
		if t == nil {
			return fmt.Errorf("agent: %s: %w: tool %d is nil", d.Name, ErrInvalidAgent, i)
		}
		if t.Name() == "" {
			return fmt.Errorf("agent: %s: %w: tool %d has no name", d.Name, ErrInvalidAgent, i)
		}
		if _, dup := seen[t.Name()]; dup {
			return fmt.Errorf("agent: %s: %w: duplicate tool %q", d.Name, ErrInvalidAgent, t.Name())
		}
		seen[t.Name()] = struct{}{}
	}
	return nil
}

// Agent is a validated Descriptor bound to a backend.
type Agent struct {
	id       uuid.UUID
	desc     Descriptor
	caller   ToolCaller
	model    string
	tools    map[string]tools.Tool
	params   []openaiSDK.ChatCompletionToolUnionParam
	maxTurns int
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxTurns sets the turn budget. Values below 1 keep DefaultMaxTurns.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxTurns = n
		}
	}
}

// WithLogger sets the logger for turns and tool calls.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records runs and tool calls in m.
func WithMetrics(m *metrics.Registry) Option {
	return func(a *Agent) { a.metrics = m }
}

// Build validates d and binds it to mp. The model is resolved once, here.
func Build(d Descriptor, mp ModelProvider, opts ...Option) (*Agent, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if mp == nil {
		return nil, fmt.Errorf("agent: %s: %w: model provider is required", d.Name, ErrInvalidAgent)
	}

	caller, model := mp.Model(d.Model)
	if caller == nil || model == "" {
		return nil, fmt.Errorf("agent: %s: %w: provider %s has no model", d.Name, ErrInvalidAgent, d.Provider)
	}

	d.Tools = slices.Clone(d.Tools)
	a := &Agent{
		id:       uuid.New(),
		desc:     d,
		caller:   caller,
		model:    model,
		tools:    make(map[string]tools.Tool, len(d.Tools)),
		maxTurns: DefaultMaxTurns,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}

	for _, t := range d.Tools {
		a.tools[t.Name()] = t
		a.params = append(a.params, openaiSDK.ChatCompletionFunctionTool(openaiSDK.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openaiSDK.String(t.Description()),
			Parameters:  openaiSDK.FunctionParameters(t.Parameters()),
		}))
	}

	return a, nil
}

// ID identifies this agent instance in logs.
func (a *Agent) ID() uuid.UUID { return a.id }

// Descriptor returns the definition the agent was built from.
func (a *Agent) Descriptor() Descriptor {
	d := a.desc
	d.Tools = slices.Clone(d.Tools)
	return d
}

// Info summarizes an agent.
type Info struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	ToolCount    int    `json:"tools_count"`
	Provider     string `json:"model_provider"`
	Model        string `json:"model_name"`
}

// Info returns the display summary of a.
func (a *Agent) Info() Info {
	return Info{
		Name:         a.desc.Name,
		Instructions: a.desc.Instructions,
		ToolCount:    len(a.desc.Tools),
		Provider:     a.desc.Provider,
		Model:        a.model,
	}
}

// ToolCall records one tool invocation made during a run.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Output    string
	Err       error
}

// Result is the outcome of Run.
type Result struct {
	FinalOutput string
	Turns       int
	ToolCalls   []ToolCall
	Usage       providers.Usage
}

// Run executes the tool loop for one user input.
func (a *Agent) Run(ctx context.Context, input string) (*Result, error) {
	start := time.Now()
	log := a.logger.With(
		slog.String("agent", a.desc.Name),
		slog.String("agent_id", a.id.String()),
		slog.String("model", a.model),
	)

	msgs := make([]openaiSDK.ChatCompletionMessageParamUnion, 0, 2)
	if a.desc.Instructions != "" {
		msgs = append(msgs, openaiSDK.SystemMessage(a.desc.Instructions))
	}
	msgs = append(msgs, openaiSDK.UserMessage(input))

	params := openaiSDK.ChatCompletionNewParams{
		Model:    a.model,
		Messages: msgs,
		Tools:    a.params,
	}

	res := &Result{}
	for turn := 1; turn <= a.maxTurns; turn++ {
		res.Turns = turn

		resp, err := a.caller.NewChatCompletion(ctx, params)
		if err != nil {
			a.recordRun(outcomeError)
			log.ErrorContext(ctx, "agent run failed", slog.Int("turn", turn), slog.Any("error", err))
			return nil, fmt.Errorf("agent: %s: turn %d: %w", a.desc.Name, turn, err)
		}
		res.Usage.InputTokens += int(resp.Usage.PromptTokens)
		res.Usage.OutputTokens += int(resp.Usage.CompletionTokens)

		if len(resp.Choices) == 0 {
			a.recordRun(outcomeError)
			return nil, fmt.Errorf("agent: %s: turn %d: %w", a.desc.Name, turn, ErrEmptyResponse)
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			res.FinalOutput = msg.Content
			a.recordRun(outcomeOK)
			log.InfoContext(ctx, "agent run finished",
				slog.Int("turns", turn),
				slog.Int("tool_calls", len(res.ToolCalls)),
				slog.Duration("latency", time.Since(start)),
			)
			return res, nil
		}

		params.Messages = append(params.Messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			tc := a.invoke(ctx, call.ID, call.Function.Name, call.Function.Arguments)
			log.DebugContext(ctx, "tool call",
				slog.String("tool", tc.Name),
				slog.Bool("failed", tc.Err != nil),
			)
			res.ToolCalls = append(res.ToolCalls, tc)
			params.Messages = append(params.Messages, openaiSDK.ToolMessage(tc.Output, tc.ID))
		}
	}

	a.recordRun(outcomeMaxTurns)
	log.WarnContext(ctx, "agent run hit turn limit", slog.Int("max_turns", a.maxTurns))
	return res, &MaxTurnsError{Agent: a.desc.Name, MaxTurns: a.maxTurns, Result: res}
}

// invoke runs one requested tool. Failures are reported back to the model
// as text so it can recover.
func (a *Agent) invoke(ctx context.Context, id, name, args string) ToolCall {
	tc := ToolCall{ID: id, Name: name, Arguments: args}

	t, ok := a.tools[name]
	if !ok {
		tc.Err = fmt.Errorf("agent: unknown tool %q", name)
		tc.Output = fmt.Sprintf("Error: unknown tool %q", name)
		a.recordTool(name, outcomeUnknown)
		return tc
	}

	out, err := t.Invoke(ctx, []byte(args))
	if err != nil {
		tc.Err = err
		tc.Output = "Error: " + err.Error()
		a.recordTool(name, outcomeError)
		return tc
	}

	tc.Output = out
	a.recordTool(name, outcomeOK)
	return tc
}

func (a *Agent) recordRun(outcome string) {
	if a.metrics != nil {
		a.metrics.RecordAgentRun(a.desc.Name, outcome)
	}
}

func (a *Agent) recordTool(name, outcome string) {
	if a.metrics != nil {
		a.metrics.RecordToolCall(name, outcome)
	}
}
