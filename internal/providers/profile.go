package providers

import (
	"os"
	"sort"
	"strings"
)

// Kind names the wire protocol a profile speaks.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
)

// Registered profile tags.
const (
	TagGateway   = "gateway"
	TagDirect    = "direct"
	TagAnthropic = "anthropic"
	TagGemini    = "gemini"
	TagCustom    = "custom"
)

// Profile is a static connection preset.
type Profile struct {
	Tag           string
	Kind          Kind
	BaseURL       string
	DefaultModel  string
	CredentialEnv string
}

// ResolvedConfig is a Profile materialized against the environment and any
// explicit overrides. It is computed per call and never persisted.
type ResolvedConfig struct {
	Tag        string
	Kind       Kind
	BaseURL    string
	Model      string
	Credential string
}

// Overrides are explicit values that take precedence over a profile's
// static defaults. An explicit APIKey skips the environment lookup.
type Overrides struct {
	BaseURL string
	Model   string
	APIKey  string
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// DefaultProfiles returns the built-in gateway and direct-vendor profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Tag:           TagGateway,
			Kind:          KindOpenAI,
			BaseURL:       "https://openrouter.ai/api/v1",
			DefaultModel:  "openai/gpt-4o-mini",
			CredentialEnv: "OPEN_ROUTER_API_KEY",
		},
		{
			Tag:           TagDirect,
			Kind:          KindOpenAI,
			BaseURL:       "https://api.openai.com/v1",
			DefaultModel:  "gpt-4o-mini",
			CredentialEnv: "OPENAI_API_KEY",
		},
		{
			Tag:           TagAnthropic,
			Kind:          KindAnthropic,
			BaseURL:       "https://api.anthropic.com/v1",
			DefaultModel:  "claude-3-5-haiku-latest",
			CredentialEnv: "ANTHROPIC_API_KEY",
		},
		{
			Tag:           TagGemini,
			Kind:          KindGemini,
			BaseURL:       "https://generativelanguage.googleapis.com/v1beta",
			DefaultModel:  "gemini-2.0-flash",
			CredentialEnv: "GOOGLE_API_KEY",
		},
	}
}

// Custom returns the profile of a self-hosted or third-party
// OpenAI-compatible endpoint. Base URL and model have no static default.
func Custom(baseURL, model string) Profile {
	return Profile{
		Tag:           TagCustom,
		Kind:          KindOpenAI,
		BaseURL:       baseURL,
		DefaultModel:  model,
		CredentialEnv: "CUSTOM_API_KEY",
	}
}

// tagAliases maps legacy tag spellings onto registered tags.
var tagAliases = map[string]string{
	"openrouter": TagGateway,
	"openai":     TagDirect,
}

// Registry is an immutable set of profiles keyed by tag. Methods that change
// it return a new Registry.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a Registry from the given profiles. Later duplicates
// replace earlier ones.
func NewRegistry(profiles ...Profile) Registry {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		m[p.Tag] = p
	}
	return Registry{profiles: m}
}

// DefaultRegistry returns a Registry of DefaultProfiles.
func DefaultRegistry() Registry {
	return NewRegistry(DefaultProfiles()...)
}

// Select returns the profile registered under tag. Tags are matched
// case-insensitively and legacy spellings ("openrouter", "openai") are
// accepted. Select never reads the environment.
func (r Registry) Select(tag string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if alias, ok := tagAliases[key]; ok {
		key = alias
	}
	p, ok := r.profiles[key]
	if !ok {
		return Profile{}, &UnknownProviderError{Tag: tag, Available: r.Tags()}
	}
	return p, nil
}

// Tags returns the registered tags in lexical order.
func (r Registry) Tags() []string {
	tags := make([]string, 0, len(r.profiles))
	for t := range r.profiles {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// With returns a copy of r with p registered (or replaced).
func (r Registry) With(p Profile) Registry {
	m := make(map[string]Profile, len(r.profiles)+1)
	for k, v := range r.profiles {
		m[k] = v
	}
	m[p.Tag] = p
	return Registry{profiles: m}
}

// WithBaseURL returns a copy of r whose tag profile points at baseURL.
// Unknown tags and empty URLs leave the registry unchanged.
func (r Registry) WithBaseURL(tag, baseURL string) Registry {
	p, ok := r.profiles[tag]
	if !ok || baseURL == "" {
		return r
	}
	p.BaseURL = baseURL
	return r.With(p)
}

// Materialize reads the profile's credential from the environment.
// It fails with *MissingCredentialError when the variable is unset or empty.
func Materialize(p Profile, lookup LookupFunc) (ResolvedConfig, error) {
	return MaterializeWith(p, Overrides{}, lookup)
}

// MaterializeWith combines p with explicit overrides and, when no API key
// override is given, a fresh lookup of p.CredentialEnv. A nil lookup uses
// os.LookupEnv.
func MaterializeWith(p Profile, ov Overrides, lookup LookupFunc) (ResolvedConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	rc := ResolvedConfig{
		Tag:     p.Tag,
		Kind:    p.Kind,
		BaseURL: firstNonEmpty(ov.BaseURL, p.BaseURL),
		Model:   firstNonEmpty(ov.Model, p.DefaultModel),
	}

	var missing []string
	if rc.BaseURL == "" {
		missing = append(missing, "base URL")
	}
	if rc.Model == "" {
		missing = append(missing, "model")
	}
	if len(missing) > 0 {
		return ResolvedConfig{}, &IncompleteProfileError{Provider: p.Tag, Missing: missing}
	}

	rc.Credential = ov.APIKey
	if rc.Credential == "" && p.CredentialEnv != "" {
		if v, ok := lookup(p.CredentialEnv); ok {
			rc.Credential = v
		}
	}
	if rc.Credential == "" {
		return ResolvedConfig{}, &MissingCredentialError{Provider: p.Tag, EnvVar: p.CredentialEnv}
	}

	return rc, nil
}

// Status is the configuration health of one profile.
type Status struct {
	Tag        string
	Configured bool
	Model      string
	BaseURL    string
	Err        error
}

// Check materializes every registered profile and reports which ones are
// usable with the current environment.
func (r Registry) Check(lookup LookupFunc) []Status {
	tags := r.Tags()
	out := make([]Status, 0, len(tags))
	for _, tag := range tags {
		p := r.profiles[tag]
		st := Status{Tag: tag, Model: p.DefaultModel, BaseURL: p.BaseURL}
		if _, err := Materialize(p, lookup); err != nil {
			st.Err = err
		} else {
			st.Configured = true
		}
		out = append(out, st)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
