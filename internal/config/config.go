// Package config loads and validates runtime configuration for agentkit.
//
// Values come from, in increasing precedence: built-in defaults, a
// config.yaml in the working directory, a .env file, environment variables
// and command-line flags bound onto the same viper instance.
//
// Provider credentials (OPEN_ROUTER_API_KEY, OPENAI_API_KEY, ...) are not
// part of Config: the provider selector reads them at call time.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config is the top-level configuration container.
type Config struct {
	// LogLevel is one of: debug, info, warn, error. Default: info.
	LogLevel string

	// Provider is the default provider tag. Default: gateway.
	Provider string

	// Model is the default model alias or id. Empty uses the chat default.
	Model string

	// Temperature is the default sampling temperature. Default: 0.7.
	Temperature float64

	// MaxTokens bounds reply length; 0 leaves it to the provider.
	MaxTokens int

	// AliasPriority picks which alias table wins: free or paid. Default: free.
	AliasPriority string

	// ProviderTimeout is the per-request HTTP timeout. Default: 30s.
	ProviderTimeout time.Duration

	// BaseURLs override the built-in profile endpoints.
	BaseURLs BaseURLConfig

	// Custom describes an optional OpenAI-compatible endpoint registered
	// under the "custom" tag. Its key is read from CUSTOM_API_KEY.
	Custom CustomConfig

	Redis RedisConfig

	Cache CacheConfig

	RateLimit RateLimitConfig

	// MetricsAddr enables the /metrics and /health listener, e.g. ":9090".
	MetricsAddr string

	Agent AgentConfig

	// HistoryFile, when set, is loaded before and saved after chat sessions.
	HistoryFile string
}

// BaseURLConfig holds per-profile endpoint overrides. Empty keeps the default.
type BaseURLConfig struct {
	Gateway   string
	OpenAI    string
	Anthropic string
	Gemini    string
}

// CustomConfig holds the custom profile's endpoint and default model.
type CustomConfig struct {
	BaseURL string
	Model   string
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL. Example: redis://localhost:6379
	URL string
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	// Mode selects the cache backend:
	//   "redis":  Redis-backed cache (requires REDIS_URL).
	//   "memory": in-process TTL cache.
	//   "none":   disabled.
	// Default: "none".
	Mode string

	// TTL is the time-to-live of cached replies. Default: 1h.
	TTL time.Duration

	// ExcludeExact lists model names (aliases or ids) never cached.
	ExcludeExact []string

	// ExcludePatterns lists regular expressions over model names never cached.
	ExcludePatterns []string
}

// RateLimitConfig controls request-rate limiting.
type RateLimitConfig struct {
	// RPMLimit is the maximum completion calls per minute per provider/model.
	// 0 disables rate limiting.
	RPMLimit int
}

// AgentConfig controls the agent runtime.
type AgentConfig struct {
	// MaxTurns caps model round trips per run. Default: 10.
	MaxTurns int
}

// Load reads configuration into a fresh viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v. Callers bind CLI flags on v first.
func LoadFrom(v *viper.Viper) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// ── Defaults ──────────────────────────────────────────────────────────────
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PROVIDER", "gateway")
	v.SetDefault("TEMPERATURE", 0.7)
	v.SetDefault("MAX_TOKENS", 0)
	v.SetDefault("ALIAS_PRIORITY", "free")
	v.SetDefault("PROVIDER_TIMEOUT", "30s")
	v.SetDefault("CACHE_MODE", "none")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("RPM_LIMIT", 0)
	v.SetDefault("AGENT_MAX_TURNS", 10)

	// ── Build config ──────────────────────────────────────────────────────────
	cfg := &Config{
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		Provider:        strings.ToLower(strings.TrimSpace(v.GetString("PROVIDER"))),
		Model:           v.GetString("MODEL"),
		Temperature:     v.GetFloat64("TEMPERATURE"),
		MaxTokens:       v.GetInt("MAX_TOKENS"),
		AliasPriority:   strings.ToLower(v.GetString("ALIAS_PRIORITY")),
		ProviderTimeout: v.GetDuration("PROVIDER_TIMEOUT"),

		BaseURLs: BaseURLConfig{
			Gateway:   v.GetString("GATEWAY_BASE_URL"),
			OpenAI:    v.GetString("OPENAI_BASE_URL"),
			Anthropic: v.GetString("ANTHROPIC_BASE_URL"),
			Gemini:    v.GetString("GEMINI_BASE_URL"),
		},

		Custom: CustomConfig{
			BaseURL: v.GetString("CUSTOM_BASE_URL"),
			Model:   v.GetString("CUSTOM_MODEL"),
		},

		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},

		Cache: CacheConfig{
			Mode:            strings.ToLower(v.GetString("CACHE_MODE")),
			TTL:             v.GetDuration("CACHE_TTL"),
			ExcludeExact:    splitList(v.GetStringSlice("CACHE_EXCLUDE_EXACT")),
			ExcludePatterns: splitList(v.GetStringSlice("CACHE_EXCLUDE_PATTERNS")),
		},

		RateLimit: RateLimitConfig{
			RPMLimit: v.GetInt("RPM_LIMIT"),
		},

		MetricsAddr: v.GetString("METRICS_ADDR"),

		Agent: AgentConfig{
			MaxTurns: v.GetInt("AGENT_MAX_TURNS"),
		},

		HistoryFile: v.GetString("HISTORY_FILE"),
	}

	// ── Validation ────────────────────────────────────────────────────────────
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks all semantic constraints that cannot be expressed as defaults.
func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf(
			"config: invalid LOG_LEVEL %q; must be one of: debug, info, warn, error",
			c.LogLevel,
		)
	}

	if c.Provider == "" {
		return errors.New("config: PROVIDER must not be empty")
	}

	switch c.AliasPriority {
	case "free", "paid":
	default:
		return fmt.Errorf("config: invalid ALIAS_PRIORITY %q; must be one of: free, paid", c.AliasPriority)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: TEMPERATURE must be within [0, 2], got %v", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("config: MAX_TOKENS must be ≥ 0, got %d", c.MaxTokens)
	}
	if c.ProviderTimeout <= 0 {
		return errors.New("config: PROVIDER_TIMEOUT must be a positive duration")
	}

	switch c.Cache.Mode {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf(
			"config: invalid CACHE_MODE %q; must be one of: redis, memory, none",
			c.Cache.Mode,
		)
	}

	if c.Cache.Mode == "redis" && c.Redis.URL == "" {
		return errors.New(
			"config: REDIS_URL is required when CACHE_MODE=redis; " +
				"set CACHE_MODE=memory to use the built-in in-process cache",
		)
	}

	if c.RateLimit.RPMLimit < 0 {
		return fmt.Errorf("config: RPM_LIMIT must be ≥ 0, got %d", c.RateLimit.RPMLimit)
	}
	if c.Agent.MaxTurns < 1 {
		return fmt.Errorf("config: AGENT_MAX_TURNS must be ≥ 1, got %d", c.Agent.MaxTurns)
	}

	if c.Custom.BaseURL == "" && c.Custom.Model != "" {
		return errors.New("config: CUSTOM_MODEL is set but CUSTOM_BASE_URL is empty")
	}

	return nil
}

// splitList flattens comma-separated environment values into a list.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// loadDotEnv populates process env vars from a .env file when present.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config: %s is a directory, expected a file", path)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return nil
}
