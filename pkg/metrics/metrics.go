// Package metrics exposes pipeline run health as Prometheus collectors.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	layerDuration *prometheus.HistogramVec
	rows          *prometheus.GaugeVec
	recordErrors  *prometheus.CounterVec
	queries       *prometheus.CounterVec
}

// New registers the pipeline collectors on a dedicated registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ordermart"
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		layerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layer_duration_seconds",
			Help:      "Time to build and publish one layer.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"layer", "status"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_rows",
			Help:      "Rows in the last published copy of each entity.",
		}, []string{"entity"}),
		recordErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Malformed input records by source and kind.",
		}, []string{"source", "kind"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_requests_total",
			Help:      "Query API requests by route and status code class.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.runs, m.layerDuration, m.rows, m.recordErrors, m.queries)
	return m
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveLayer(layer, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.layerDuration.WithLabelValues(layer, status).Observe(d.Seconds())
}

func (m *Metrics) SetRows(entity string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(entity).Set(float64(n))
}

func (m *Metrics) AddRecordErrors(source, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordErrors.WithLabelValues(source, kind).Add(float64(n))
}

func (m *Metrics) ObserveQuery(route string, code int) {
	if m == nil {
		return
	}
	class := "5xx"
	switch {
	case code < 300:
		class = "2xx"
	case code < 400:
		class = "3xx"
	case code < 500:
		class = "4xx"
	}
	m.queries.WithLabelValues(route, class).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
