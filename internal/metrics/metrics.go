// Package metrics exposes Prometheus counters for syncs, rule matches and
// pattern suggestions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "echo"

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	SyncRequests       *prometheus.CounterVec
	SyncDuration       prometheus.Histogram
	Integrations       *prometheus.CounterVec
	RulesApplied       prometheus.Counter
	Suggestions        *prometheus.CounterVec
	Alerts             prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		SyncRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_requests_total",
				Help:      "Total number of sync requests by outcome",
			},
			[]string{"source", "outcome"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Time to apply rules and execute a sync",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Integrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "integration_results_total",
				Help:      "Per-target integration results",
			},
			[]string{"mode", "target", "success"},
		),
		RulesApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "automation_rules_applied_total",
				Help:      "Total number of automation rules that fired",
			},
		),
		Suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pattern_suggestions_total",
				Help:      "Pattern suggestions raised, by detector and whether the gate surfaced them",
			},
			[]string{"detector", "surfaced"},
		),
		Alerts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "large_deal_alerts_total",
				Help:      "Total number of large deal alerts",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.SyncRequests,
		m.SyncDuration,
		m.Integrations,
		m.RulesApplied,
		m.Suggestions,
		m.Alerts,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// SuggestionRaised counts a detector candidate
func (m *Metrics) SuggestionRaised(detector string, surfaced bool) {
	m.Suggestions.WithLabelValues(detector, strconv.FormatBool(surfaced)).Inc()
}

// AlertRaised counts a large deal alert
func (m *Metrics) AlertRaised() {
	m.Alerts.Inc()
}

// IntegrationResults counts each target's outcome
func (m *Metrics) IntegrationResults(mode string, results map[string]models.IntegrationResult) {
	for target, res := range results {
		m.Integrations.WithLabelValues(mode, target, strconv.FormatBool(res.Success)).Inc()
	}
}

// ObserveSync records one completed sync request
func (m *Metrics) ObserveSync(source, outcome string, rulesApplied int, elapsed time.Duration) {
	m.SyncRequests.WithLabelValues(source, outcome).Inc()
	m.SyncDuration.Observe(elapsed.Seconds())
	if rulesApplied > 0 {
		m.RulesApplied.Add(float64(rulesApplied))
	}
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus metrics handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
