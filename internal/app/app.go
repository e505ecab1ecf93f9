// Package app wires up all subsystems and owns the application lifecycle.
//
// Startup order:
//  1. initInfra:     external connections (Redis when needed)
//  2. initCatalog:   model alias tables
//  3. initProviders: provider profile registry
//  4. initServices:  response cache, rate limiter, metrics, request logger
//
// Backends are built per call from the registry, so credentials are read
// from the environment at the moment they are needed.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nulpointcorp/agentkit/internal/agent"
	"github.com/nulpointcorp/agentkit/internal/cache"
	"github.com/nulpointcorp/agentkit/internal/catalog"
	"github.com/nulpointcorp/agentkit/internal/chat"
	"github.com/nulpointcorp/agentkit/internal/config"
	"github.com/nulpointcorp/agentkit/internal/history"
	"github.com/nulpointcorp/agentkit/internal/logger"
	"github.com/nulpointcorp/agentkit/internal/metrics"
	"github.com/nulpointcorp/agentkit/internal/providers"
	"github.com/nulpointcorp/agentkit/internal/ratelimit"
)

// App owns all long-lived resources and exposes Run / Close.
type App struct {
	version string
	cfg     *config.Config
	baseCtx context.Context
	log     *slog.Logger
	lookup  providers.LookupFunc

	// Optional external connections, nil when not configured.
	rdb *redis.Client

	catalog  catalog.Catalog
	registry providers.Registry

	reqLogger  *logger.Logger
	memCache   *cache.MemoryCache
	respCache  cache.Cache
	exclusions *cache.ExclusionList
	limiter    ratelimit.Limiter

	prom *metrics.Registry

	closeOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithLookup replaces os.LookupEnv for credential lookups.
func WithLookup(fn providers.LookupFunc) Option {
	return func(a *App) {
		if fn != nil {
			a.lookup = fn
		}
	}
}

// New initialises all subsystems and returns a ready-to-use App.
// All resources allocated here are released by Close.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, version string, opts ...Option) (*App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("app: context must not be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("app: config must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	a := &App{cfg: cfg, version: version, baseCtx: ctx, log: log, lookup: os.LookupEnv}
	for _, o := range opts {
		o(a)
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"infra", a.initInfra},
		{"catalog", a.initCatalog},
		{"providers", a.initProviders},
		{"services", a.initServices},
	}

	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: init %s: %w", s.name, err)
		}
	}

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Catalog returns the alias catalog.
func (a *App) Catalog() catalog.Catalog { return a.catalog }

// Registry returns the provider profile registry.
func (a *App) Registry() providers.Registry { return a.registry }

// Metrics returns the metrics registry.
func (a *App) Metrics() *metrics.Registry { return a.prom }

// Check reports the configuration status of every registered provider and
// mirrors it into the provider_configured gauge.
func (a *App) Check() []providers.Status {
	statuses := a.registry.Check(a.lookup)
	for _, st := range statuses {
		a.prom.SetProviderConfigured(st.Tag, st.Configured)
	}
	return statuses
}

// Resolve selects and materializes the profile behind tag. An empty tag
// uses the configured default provider.
func (a *App) Resolve(tag string, ov providers.Overrides) (providers.ResolvedConfig, error) {
	if tag == "" {
		tag = a.cfg.Provider
	}
	p, err := a.registry.Select(tag)
	if err != nil {
		return providers.ResolvedConfig{}, err
	}
	return providers.MaterializeWith(p, ov, a.lookup)
}

// ChatOptions selects the backend and session of a chat client. Empty
// fields fall back to the configuration.
type ChatOptions struct {
	Provider string
	Model    string
	History  *history.History
}

// NewChat builds a chat client against the selected provider with the
// cache, limiter, metrics and request logger of the app.
//
// Without an explicit model the gateway uses the chat default model and
// direct vendors use their profile's default model.
func (a *App) NewChat(o ChatOptions) (*chat.Client, error) {
	model := firstNonEmpty(o.Model, a.cfg.Model)

	rc, err := a.Resolve(o.Provider, a.modelOverride(model))
	if err != nil {
		return nil, err
	}
	completer, err := NewCompleter(a.baseCtx, rc, a.cfg.ProviderTimeout)
	if err != nil {
		return nil, err
	}

	if model == "" && rc.Tag != providers.TagGateway {
		model = rc.Model
	}

	opts := []chat.Option{
		chat.WithModel(model),
		chat.WithTemperature(a.cfg.Temperature),
		chat.WithMaxTokens(a.cfg.MaxTokens),
		chat.WithHistory(o.History),
		chat.WithMetrics(a.prom),
		chat.WithLogger(a.log),
	}
	if a.respCache != nil {
		opts = append(opts, chat.WithCache(a.respCache, a.cfg.Cache.TTL, a.exclusions))
	}
	if a.limiter != nil {
		opts = append(opts, chat.WithLimiter(a.limiter))
	}
	if a.reqLogger != nil {
		opts = append(opts, chat.WithRequestLogger(a.reqLogger))
	}

	a.log.Debug("chat client ready",
		slog.String("provider", rc.Tag),
		slog.String("base_url", rc.BaseURL),
		slog.String("model", model),
	)
	return chat.New(completer, a.catalog, opts...), nil
}

// NewAgent binds d to its provider. The model of d, when set, is resolved
// through the alias catalog; otherwise the profile's default model is used.
func (a *App) NewAgent(d agent.Descriptor) (*agent.Agent, error) {
	rc, err := a.Resolve(d.Provider, a.modelOverride(d.Model))
	if err != nil {
		return nil, err
	}
	caller, err := NewToolCaller(rc, a.cfg.ProviderTimeout)
	if err != nil {
		return nil, err
	}
	if d.Model != "" {
		d = d.WithModel(a.catalog.Resolve(d.Model))
	}

	return agent.Build(d,
		agent.StaticProvider{Caller: caller, DefaultModel: rc.Model},
		agent.WithMaxTurns(a.cfg.Agent.MaxTurns),
		agent.WithLogger(a.log),
		agent.WithMetrics(a.prom),
	)
}

// Run starts the metrics listener when METRICS_ADDR is set, runs fn, and
// stops the listener once fn returns or ctx is cancelled.
func (a *App) Run(ctx context.Context, fn func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if addr := a.cfg.MetricsAddr; addr != "" {
		var opts []metrics.ServerOption
		if a.rdb != nil {
			opts = append(opts, metrics.WithProbe("redis", redisPinger(a.baseCtx, a.rdb)))
		}
		srv := metrics.NewServer(a.prom, a.version, opts...)
		a.log.Info("metrics listener starting", slog.String("addr", addr))
		g.Go(func() error {
			return srv.Serve(runCtx, addr)
		})
	}

	g.Go(func() error {
		defer cancel()
		return fn(runCtx)
	})

	return g.Wait()
}

// Close releases all resources in reverse-init order. Safe to call multiple
// times and from multiple goroutines.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.reqLogger != nil {
			if err := a.reqLogger.Close(); err != nil {
				a.log.Error("logger close error", slog.String("error", err.Error()))
			}
			if n := a.reqLogger.DroppedLogs(); n > 0 {
				a.log.Warn("request log entries dropped", slog.Int64("count", n))
			}
		}
		if a.memCache != nil {
			_ = a.memCache.Close()
		}
		if a.rdb != nil {
			if err := a.rdb.Close(); err != nil {
				a.log.Error("redis close error", slog.String("error", err.Error()))
			}
		}
	})
}

// ── Private helpers ──────────────────────────────────────────────────────────

// modelOverride completes profiles without a static model (custom) with an
// explicitly requested one, resolved through the alias catalog.
func (a *App) modelOverride(model string) providers.Overrides {
	if model == "" {
		return providers.Overrides{}
	}
	return providers.Overrides{Model: a.catalog.Resolve(model)}
}

// redisPinger reports whether the shared client still answers PING.
func redisPinger(ctx context.Context, rdb *redis.Client) func() bool {
	return func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err() == nil
	}
}

// redactURL replaces the userinfo portion of a URL with "***" for safe logging.
// e.g. "redis://:secret@localhost:6379" → "redis://***@localhost:6379"
func redactURL(raw string) string {
	for i, c := range raw {
		if c == '@' {
			for j := i - 1; j >= 0; j-- {
				if j+2 < len(raw) && raw[j:j+3] == "://" {
					return raw[:j+3] + "***" + raw[i:]
				}
			}
			return "***" + raw[i:]
		}
	}
	return raw
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
