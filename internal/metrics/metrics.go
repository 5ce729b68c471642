// Package metrics holds the Prometheus collectors for the status service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waypoint"

// Metrics is the set of collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	// ReportsTotal counts committed reports by state and source.
	ReportsTotal *prometheus.CounterVec
	// PromptsTotal counts prompts attached to records by slot and category.
	PromptsTotal *prometheus.CounterVec
	// AnswersTotal counts recorded answers by slot, category and whether skipped.
	AnswersTotal *prometheus.CounterVec
	// CorrectionsTotal counts synthesized correction records.
	CorrectionsTotal prometheus.Counter
	// UpstreamFailuresTotal counts failed optional lookups by source.
	UpstreamFailuresTotal *prometheus.CounterVec
	// ConcurrencyConflictsTotal counts reports rejected by the version check.
	ConcurrencyConflictsTotal prometheus.Counter
	// ClassifyDuration is a histogram of report handling latency.
	ClassifyDuration *prometheus.HistogramVec
	// StreamClients is the number of connected live-stream clients.
	StreamClients prometheus.Gauge
}

// New creates the collectors on a fresh registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Total number of status records committed",
			},
			[]string{"state", "source"},
		),
		PromptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompts_total",
				Help:      "Total number of prompts attached to status records",
			},
			[]string{"slot", "category"},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Total number of prompt answers recorded",
			},
			[]string{"slot", "category", "skipped"},
		),
		CorrectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "corrections_total",
				Help:      "Total number of status corrections applied",
			},
		),
		UpstreamFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_failures_total",
				Help:      "Total number of failed place or conditions lookups",
			},
			[]string{"source"}, // source: places, conditions
		),
		ConcurrencyConflictsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "concurrency_conflicts_total",
				Help:      "Total number of reports rejected because the actor moved on",
			},
		),
		ClassifyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Duration of report submission including lookups, in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"status"}, // status: success, error
		),
		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_clients",
				Help:      "Number of connected live stream clients",
			},
		),
	}

	m.registry.MustRegister(
		m.ReportsTotal,
		m.PromptsTotal,
		m.AnswersTotal,
		m.CorrectionsTotal,
		m.UpstreamFailuresTotal,
		m.ConcurrencyConflictsTotal,
		m.ClassifyDuration,
		m.StreamClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an http.Handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveReport records how long a report took.
func (m *Metrics) ObserveReport(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ClassifyDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// UpstreamFailure counts one failed lookup.
func (m *Metrics) UpstreamFailure(source string) {
	m.UpstreamFailuresTotal.WithLabelValues(source).Inc()
}
