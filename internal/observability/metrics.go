package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's collectors and the registry they live on.
// Pass it explicitly; nothing registers on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	StageRequests *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	LLMCalls      *prometheus.CounterVec
	LLMDuration   *prometheus.HistogramVec
	LLMRetries    *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		StageRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexa_stage_requests_total",
			Help: "Pipeline stage runs by outcome code.",
		}, []string{"stage", "code"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexa_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		LLMCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexa_llm_calls_total",
			Help: "Model calls by phase and result.",
		}, []string{"phase", "result"}),
		LLMDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexa_llm_call_duration_seconds",
			Help:    "Latency of a single model call.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 11),
		}, []string{"phase"}),
		LLMRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexa_llm_retries_total",
			Help: "Model call retries scheduled after a failed attempt.",
		}, []string{"phase"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nexa_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
