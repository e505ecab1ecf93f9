// Package metrics provides a Prometheus metrics registry for agentkit.
//
// All metrics live in a private registry (not the global default) so the
// toolkit can be embedded without clashing with host metrics. Handler
// exposes them for scraping.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Completion outcome labels.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusCached      = "cached"
	StatusRateLimited = "rate_limited"
)

// Registry holds all exported metrics.
type Registry struct {
	reg *prometheus.Registry

	// agentkit_inflight_completions
	inFlight prometheus.Gauge

	// agentkit_completions_total{provider,model,status}
	completionsTotal *prometheus.CounterVec

	// agentkit_completion_duration_seconds{provider,cache}
	completionDuration *prometheus.HistogramVec

	// agentkit_tokens_total{provider,direction}
	tokensTotal *prometheus.CounterVec

	// agentkit_cache_operations_total{op,result}
	cacheOps *prometheus.CounterVec

	// agentkit_ratelimit_total{result}
	rateLimitTotal *prometheus.CounterVec

	// agentkit_agent_runs_total{agent,outcome}
	agentRuns *prometheus.CounterVec

	// agentkit_agent_tool_calls_total{tool,outcome}
	toolCalls *prometheus.CounterVec

	// agentkit_provider_configured{provider}: 1 when the credential is present
	providerConfigured *prometheus.GaugeVec

	// agentkit_build_info{version}
	buildInfo *prometheus.GaugeVec

	metricsHandler fasthttp.RequestHandler
}

func New() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		reg: reg,

		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentkit_inflight_completions",
			Help: "Current number of upstream completion calls in flight",
		}),

		completionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentkit_completions_total",
				Help: "Completion requests by provider, model and outcome",
			},
			[]string{"provider", "model", "status"},
		),

		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentkit_completion_duration_seconds",
				Help:    "Completion latency in seconds, cache lookups included",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider", "cache"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentkit_tokens_total",
				Help: "Token usage reported by upstream providers",
			},
			[]string{"provider", "direction"},
		),

		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentkit_cache_operations_total",
				Help: "Response cache operations by type and result",
			},
			[]string{"op", "result"},
		),

		rateLimitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentkit_ratelimit_total",
				Help: "Rate limit decisions",
			},
			[]string{"result"},
		),

		agentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentkit_agent_runs_total",
				Help: "Agent runs by agent name and outcome",
			},
			[]string{"agent", "outcome"},
		),

		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentkit_agent_tool_calls_total",
				Help: "Tool invocations requested by agents",
			},
			[]string{"tool", "outcome"},
		),

		providerConfigured: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentkit_provider_configured",
				Help: "Provider configuration status (1=credential present, 0=missing)",
			},
			[]string{"provider"},
		),

		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentkit_build_info",
				Help: "Build information",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(
		r.inFlight,
		r.completionsTotal,
		r.completionDuration,
		r.tokensTotal,
		r.cacheOps,
		r.rateLimitTotal,
		r.agentRuns,
		r.toolCalls,
		r.providerConfigured,
		r.buildInfo,
	)

	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	r.metricsHandler = fasthttpadaptor.NewFastHTTPHandler(h)

	return r
}

func (r *Registry) IncInFlight() { r.inFlight.Inc() }
func (r *Registry) DecInFlight() { r.inFlight.Dec() }

// RecordCompletion counts one completion and observes its latency.
func (r *Registry) RecordCompletion(provider, model, status string, dur time.Duration) {
	r.completionsTotal.WithLabelValues(provider, model, status).Inc()

	cache := "miss"
	if status == StatusCached {
		cache = "hit"
	}
	r.completionDuration.WithLabelValues(provider, cache).Observe(dur.Seconds())
}

func (r *Registry) AddTokens(provider string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		r.tokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		r.tokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

func (r *Registry) RecordRateLimit(result string) {
	r.rateLimitTotal.WithLabelValues(result).Inc()
}

func (r *Registry) CacheGetHit()    { r.cacheOps.WithLabelValues("get", "hit").Inc() }
func (r *Registry) CacheGetMiss()   { r.cacheOps.WithLabelValues("get", "miss").Inc() }
func (r *Registry) CacheGetBypass() { r.cacheOps.WithLabelValues("get", "bypass").Inc() }
func (r *Registry) CacheSetOK()     { r.cacheOps.WithLabelValues("set", "ok").Inc() }
func (r *Registry) CacheSetError()  { r.cacheOps.WithLabelValues("set", "error").Inc() }

func (r *Registry) RecordAgentRun(agent, outcome string) {
	r.agentRuns.WithLabelValues(agent, outcome).Inc()
}

func (r *Registry) RecordToolCall(tool, outcome string) {
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (r *Registry) SetProviderConfigured(provider string, ok bool) {
	if ok {
		r.providerConfigured.WithLabelValues(provider).Set(1)
		return
	}
	r.providerConfigured.WithLabelValues(provider).Set(0)
}

func (r *Registry) SetBuildInfo(version string) {
	// Gauge is used so the time series always exists.
	r.buildInfo.WithLabelValues(version).Set(1)
}

func (r *Registry) Handler() fasthttp.RequestHandler {
	return r.metricsHandler
}

func (r *Registry) PromRegistry() *prometheus.Registry { return r.reg }
