// Package chat is the conversational client: it resolves model aliases,
// keeps the session history, and sends completions through one backend.
// One-off responses can be served from a response cache, and every
// upstream call passes through an optional rate limiter.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nulpointcorp/agentkit/internal/cache"
	"github.com/nulpointcorp/agentkit/internal/catalog"
	"github.com/nulpointcorp/agentkit/internal/history"
	"github.com/nulpointcorp/agentkit/internal/logger"
	"github.com/nulpointcorp/agentkit/internal/metrics"
	"github.com/nulpointcorp/agentkit/internal/providers"
	"github.com/nulpointcorp/agentkit/internal/ratelimit"
)

const (
	DefaultModel       = "meta-llama/llama-4-maverick:free"
	DefaultTemperature = 0.7
	DefaultCacheTTL    = time.Hour

	defaultCompareConcurrency = 4
)

// Operation names used in request logs.
const (
	OpChat     = "chat"
	OpResponse = "response"
	OpCompare  = "compare"
)

// ErrRateLimited is returned when the limiter denies an upstream call.
var ErrRateLimited = errors.New("chat: rate limit exceeded")

// Client is a chat session bound to one backend. It is not safe for
// concurrent Chat calls; Compare may run concurrently with nothing else.
type Client struct {
	completer providers.Completer
	catalog   catalog.Catalog
	history   *history.History

	model       string
	temperature float64
	maxTokens   int

	cache      cache.Cache
	cacheTTL   time.Duration
	exclusions *cache.ExclusionList

	limiter            ratelimit.Limiter
	metrics            *metrics.Registry
	requestLog         *logger.Logger
	log                *slog.Logger
	compareConcurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the default model alias or id.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the default sampling temperature. Zero is sent as is.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithMaxTokens bounds reply length; 0 leaves it to the provider.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxTokens = n
		}
	}
}

// WithHistory resumes an existing session.
func WithHistory(h *history.History) Option {
	return func(c *Client) {
		if h != nil {
			c.history = h
		}
	}
}

// WithCache enables the response cache for one-off requests. Models matched
// by excl are never cached. A ttl ≤ 0 uses DefaultCacheTTL.
func WithCache(store cache.Cache, ttl time.Duration, excl *cache.ExclusionList) Option {
	return func(c *Client) {
		c.cache = store
		c.exclusions = excl
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLimiter gates every upstream call on l.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics records completions, tokens, cache and limiter decisions in m.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRequestLogger records one entry per upstream call.
func WithRequestLogger(l *logger.Logger) Option {
	return func(c *Client) { c.requestLog = l }
}

// WithLogger sets the logger for failed completions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCompareConcurrency bounds how many models Compare queries at once.
func WithCompareConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.compareConcurrency = n
		}
	}
}

// New creates a Client sending completions through completer and resolving
// aliases with cat.
func New(completer providers.Completer, cat catalog.Catalog, opts ...Option) *Client {
	c := &Client{
		completer:          completer,
		catalog:            cat,
		history:            history.New(),
		model:              DefaultModel,
		temperature:        DefaultTemperature,
		cacheTTL:           DefaultCacheTTL,
		log:                slog.Default(),
		compareConcurrency: defaultCompareConcurrency,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CallOption overrides a client default for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	model       string
	temperature float64
	maxTokens   int
}

// Model selects the model alias or id for one call.
func Model(name string) CallOption {
	return func(o *callOptions) {
		if name != "" {
			o.model = name
		}
	}
}

// Temperature overrides the sampling temperature for one call.
func Temperature(t float64) CallOption {
	return func(o *callOptions) { o.temperature = t }
}

// MaxTokens overrides the reply length bound for one call.
func MaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

func (c *Client) callOptions(opts []CallOption) callOptions {
	o := callOptions{model: c.model, temperature: c.temperature, maxTokens: c.maxTokens}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// History exposes the session history.
func (c *Client) History() *history.History { return c.history }

// Models returns the alias tables keyed by tier.
func (c *Client) Models() map[catalog.Tier]catalog.Table { return c.catalog.Tables() }

// Provider returns the backend tag.
func (c *Client) Provider() string { return c.completer.Name() }

// Chat sends message with the whole session history and records the reply.
// When the call fails the user entry stays in the history.
func (c *Client) Chat(ctx context.Context, message string, opts ...CallOption) (string, error) {
	o := c.callOptions(opts)

	if err := c.history.Append(history.Entry{Role: history.RoleUser, Content: message}); err != nil {
		return "", err
	}

	entries := c.history.Snapshot()
	msgs := make([]providers.Message, len(entries))
	for i, e := range entries {
		msgs[i] = providers.Message{Role: e.Role, Content: e.Content}
	}

	req := &providers.CompletionRequest{
		Model:       c.catalog.Resolve(o.model),
		Messages:    msgs,
		Temperature: providers.Float64(o.temperature),
		MaxTokens:   o.maxTokens,
	}

	resp, err := c.complete(ctx, OpChat, req)
	if err != nil {
		return "", err
	}

	if err := c.history.Append(history.Entry{Role: history.RoleAssistant, Content: resp.Content}); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Response returns a one-off reply to message without touching the history.
func (c *Client) Response(ctx context.Context, message string, opts ...CallOption) (string, error) {
	o := c.callOptions(opts)
	resp, err := c.response(ctx, OpResponse, o, message)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *Client) response(ctx context.Context, op string, o callOptions, message string) (*providers.Completion, error) {
	req := &providers.CompletionRequest{
		Model:       c.catalog.Resolve(o.model),
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: message}},
		Temperature: providers.Float64(o.temperature),
		MaxTokens:   o.maxTokens,
	}

	if c.cache == nil || c.exclusions.MatchesAny(o.model, req.Model) {
		if c.cache != nil && c.metrics != nil {
			c.metrics.CacheGetBypass()
		}
		return c.complete(ctx, op, req)
	}

	key := cache.Key(c.completer.Name(), req)
	if resp, ok := c.cached(ctx, op, key); ok {
		return resp, nil
	}

	resp, err := c.complete(ctx, op, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp)
	return resp, nil
}

// cached looks key up and decodes a stored completion.
func (c *Client) cached(ctx context.Context, op, key string) (*providers.Completion, bool) {
	start := time.Now()
	data, ok := c.cache.Get(ctx, key)
	if !ok {
		if c.metrics != nil {
			c.metrics.CacheGetMiss()
		}
		return nil, false
	}

	var resp providers.Completion
	if err := json.Unmarshal(data, &resp); err != nil {
		c.log.WarnContext(ctx, "discarding unreadable cache entry", slog.String("key", key), slog.Any("error", err))
		_ = c.cache.Delete(ctx, key)
		if c.metrics != nil {
			c.metrics.CacheGetMiss()
		}
		return nil, false
	}

	lat := time.Since(start)
	if c.metrics != nil {
		c.metrics.CacheGetHit()
		c.metrics.RecordCompletion(c.completer.Name(), resp.Model, metrics.StatusCached, lat)
	}
	c.logRequest(logger.CompletionLog{
		Operation: op,
		Provider:  c.completer.Name(),
		Model:     resp.Model,
		Latency:   lat,
		Status:    metrics.StatusCached,
		Cached:    true,
	})
	return &resp, true
}

func (c *Client) store(ctx context.Context, key string, resp *providers.Completion) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.log.WarnContext(ctx, "cache set failed", slog.Any("error", err))
		if c.metrics != nil {
			c.metrics.CacheSetError()
		}
		return
	}
	if c.metrics != nil {
		c.metrics.CacheSetOK()
	}
}

// complete performs one upstream call: rate limit, metrics, request log.
func (c *Client) complete(ctx context.Context, op string, req *providers.CompletionRequest) (*providers.Completion, error) {
	provider := c.completer.Name()

	if c.limiter != nil {
		ok, err := c.limiter.Allow(ctx, ratelimit.Key(provider, req.Model))
		if err != nil {
			c.log.WarnContext(ctx, "rate limiter unavailable", slog.Any("error", err))
		}
		if !ok {
			if c.metrics != nil {
				c.metrics.RecordRateLimit("denied")
				c.metrics.RecordCompletion(provider, req.Model, metrics.StatusRateLimited, 0)
			}
			c.logRequest(logger.CompletionLog{
				Operation: op,
				Provider:  provider,
				Model:     req.Model,
				Status:    metrics.StatusRateLimited,
				Error:     ErrRateLimited.Error(),
			})
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, ratelimit.Key(provider, req.Model))
		}
		if c.metrics != nil {
			c.metrics.RecordRateLimit("allowed")
		}
	}

	if c.metrics != nil {
		c.metrics.IncInFlight()
		defer c.metrics.DecInFlight()
	}

	start := time.Now()
	resp, err := c.completer.Complete(ctx, req)
	lat := time.Since(start)

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordCompletion(provider, req.Model, metrics.StatusError, lat)
		}
		c.logRequest(logger.CompletionLog{
			Operation: op,
			Provider:  provider,
			Model:     req.Model,
			Latency:   lat,
			Status:    metrics.StatusError,
			Error:     err.Error(),
		})
		c.log.ErrorContext(ctx, "completion failed",
			slog.String("operation", op),
			slog.String("provider", provider),
			slog.String("model", req.Model),
			slog.Any("error", err),
		)
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordCompletion(provider, req.Model, metrics.StatusOK, lat)
		c.metrics.AddTokens(provider, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	c.logRequest(logger.CompletionLog{
		Operation:    op,
		Provider:     provider,
		Model:        req.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Latency:      lat,
		Status:       metrics.StatusOK,
	})
	return resp, nil
}

func (c *Client) logRequest(e logger.CompletionLog) {
	if c.requestLog != nil {
		c.requestLog.Log(e)
	}
}
