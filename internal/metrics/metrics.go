// Package metrics exposes Prometheus instruments for pipeline stages and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "financial_statements"

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpTotal     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_runs_total",
			Help:      "Pipeline stage runs by outcome.",
		}, []string{"stage", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"method", "route"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.stageDuration,
		m.stageTotal,
		m.httpDuration,
		m.httpTotal,
	)
	return m
}

// ObserveStage records one stage run.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.stageTotal.WithLabelValues(stage, outcome).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
	m.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
