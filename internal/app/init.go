package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nulpointcorp/agentkit/internal/cache"
	"github.com/nulpointcorp/agentkit/internal/catalog"
	"github.com/nulpointcorp/agentkit/internal/logger"
	"github.com/nulpointcorp/agentkit/internal/metrics"
	"github.com/nulpointcorp/agentkit/internal/providers"
	"github.com/nulpointcorp/agentkit/internal/ratelimit"
)

// initInfra establishes optional external connections. Redis is required
// when CACHE_MODE=redis and used by the rate limiter whenever REDIS_URL is set.
func (a *App) initInfra(ctx context.Context) error {
	needRedis := a.cfg.Cache.Mode == "redis" ||
		(a.cfg.RateLimit.RPMLimit > 0 && a.cfg.Redis.URL != "")
	if !needRedis {
		return nil
	}

	a.log.Info("connecting to redis", slog.String("url", redactURL(a.cfg.Redis.URL)))

	rdb, err := cache.Connect(ctx, a.cfg.Redis.URL)
	if err != nil {
		if a.cfg.Cache.Mode == "redis" {
			return fmt.Errorf("redis: %w", err)
		}
		// Only the limiter wanted Redis; it falls back to in-process buckets.
		a.log.Warn("redis unavailable, using local rate limiter", slog.String("error", err.Error()))
		return nil
	}
	a.rdb = rdb
	a.log.Info("redis connected")

	return nil
}

// initCatalog builds the alias catalog in the configured priority order.
func (a *App) initCatalog(_ context.Context) error {
	cat, err := catalog.Default(catalog.Priority(a.cfg.AliasPriority))
	if err != nil {
		return err
	}
	a.catalog = cat
	return nil
}

// initProviders builds the profile registry: built-in profiles, base URL
// overrides, and the custom profile when CUSTOM_BASE_URL is set.
func (a *App) initProviders(_ context.Context) error {
	reg := providers.DefaultRegistry().
		WithBaseURL(providers.TagGateway, a.cfg.BaseURLs.Gateway).
		WithBaseURL(providers.TagDirect, a.cfg.BaseURLs.OpenAI).
		WithBaseURL(providers.TagAnthropic, a.cfg.BaseURLs.Anthropic).
		WithBaseURL(providers.TagGemini, a.cfg.BaseURLs.Gemini)

	if a.cfg.Custom.BaseURL != "" {
		reg = reg.With(providers.Custom(a.cfg.Custom.BaseURL, a.cfg.Custom.Model))
	}

	if _, err := reg.Select(a.cfg.Provider); err != nil {
		return err
	}

	a.registry = reg
	a.log.Debug("providers registered", slog.Any("providers", reg.Tags()))

	return nil
}

// initServices creates the cache backend, rate limiter, metrics registry and
// request logger.
func (a *App) initServices(ctx context.Context) error {
	switch a.cfg.Cache.Mode {
	case "redis":
		a.respCache = cache.NewRedisCache(a.rdb)
		a.log.Info("cache backend: redis")

	case "memory":
		// MemoryCache is not shared across processes.
		a.memCache = cache.NewMemoryCache(ctx)
		a.respCache = a.memCache
		a.log.Info("cache backend: memory (in-process)")

	case "none":
		a.log.Debug("cache backend: disabled")

	default:
		return fmt.Errorf("unknown cache mode: %s", a.cfg.Cache.Mode)
	}

	// Cache exclusions.
	if len(a.cfg.Cache.ExcludeExact) > 0 || len(a.cfg.Cache.ExcludePatterns) > 0 {
		el, err := cache.NewExclusionList(a.cfg.Cache.ExcludeExact, a.cfg.Cache.ExcludePatterns)
		if err != nil {
			return fmt.Errorf("cache exclusions: %w", err)
		}
		a.exclusions = el
		a.log.Info("cache exclusions loaded", slog.Int("rules", el.Len()))
	}

	// Rate limiting is shared through Redis when connected, in-process otherwise.
	if rpm := a.cfg.RateLimit.RPMLimit; rpm > 0 {
		if a.rdb != nil {
			a.limiter = ratelimit.NewRPMLimiter(a.rdb, rpm)
			a.log.Info("rate limiting enabled", slog.Int("rpm_limit", rpm), slog.String("backend", "redis"))
		} else {
			a.limiter = ratelimit.NewLocalLimiter(rpm)
			a.log.Info("rate limiting enabled", slog.Int("rpm_limit", rpm), slog.String("backend", "local"))
		}
	}

	a.prom = metrics.New()
	a.prom.SetBuildInfo(a.version)

	reqLogger, err := logger.New(a.baseCtx, a.log)
	if err != nil {
		return fmt.Errorf("request logger: %w", err)
	}
	a.reqLogger = reqLogger

	return nil
}
