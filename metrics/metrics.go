// Package metrics exports Prometheus counters for extraction, analysis and
// change tracking.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "radar"

// Deep-fetch result labels.
const (
	DeepFetchReplaced = "replaced"
	DeepFetchNoASIN   = "no_asin"
	DeepFetchFailed   = "failed"
	DeepFetchEmpty    = "empty"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Extractions *prometheus.CounterVec
	DeepFetches *prometheus.CounterVec
	Analyses    *prometheus.CounterVec
	Alerts      *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Product page extractions by outcome kind (ok, BOT_DETECTED, CAPTCHA_WALL, ...)",
		}, []string{"kind"}),
		DeepFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deep_fetch_total",
			Help:      "Critical-review deep fetch attempts by result",
		}, []string{"result"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_total",
			Help:      "Category analyses by outcome (proposal, skipped, failed)",
		}, []string{"outcome"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised by type",
		}, []string{"type"}),
	}
	reg.MustRegister(m.Extractions, m.DeepFetches, m.Analyses, m.Alerts)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveExtraction(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "ok"
	}
	m.Extractions.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveDeepFetch(result string) {
	if m == nil {
		return
	}
	m.DeepFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAlert(alertType string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(alertType).Inc()
}
