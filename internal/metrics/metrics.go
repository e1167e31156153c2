// Package metrics exposes Prometheus collectors for the poll loop and the notification dispatcher.
package metrics

import (
	"net/http"
	"time"

	"github.com/aleister1102/pagewatch/internal/monitor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagewatch"

// Metrics owns a registry and the collectors registered on it.
// It implements monitor.PassObserver and notifier.DeliveryObserver.
type Metrics struct {
	registry *prometheus.Registry

	passesTotal          prometheus.Counter
	passDurationSeconds  prometheus.Histogram
	checksTotal          *prometheus.CounterVec
	checkDurationSeconds prometheus.Histogram
	recoveriesTotal      prometheus.Counter
	sourcesDisabled      prometheus.Gauge
	processRSSBytes      prometheus.Gauge
	lastPassTimestamp    prometheus.Gauge

	notificationsTotal          *prometheus.CounterVec
	notificationDurationSeconds *prometheus.HistogramVec
	notificationsDroppedTotal   *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		passesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Total number of completed poll passes.",
		}),
		passDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a poll pass.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of source checks, labeled by outcome and whether the check was a probe.",
		}, []string{"outcome", "probe"}),
		checkDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Fetch, normalize and diff time of one source check.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		recoveriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoveries_total",
			Help:      "Total number of disabled sources re-enabled by a successful probe.",
		}),
		sourcesDisabled: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sources_disabled",
			Help:      "Number of disabled sources at the end of the last pass.",
		}),
		processRSSBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_rss_bytes",
			Help:      "Resident set size sampled at the end of the last pass.",
		}),
		lastPassTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time at which the last pass finished.",
		}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of sink deliveries, labeled by sink, event kind and result.",
		}, []string{"sink", "kind", "result"}),
		notificationDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_duration_seconds",
			Help:      "Time spent delivering one event to one sink.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"sink"}),
		notificationsDroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Total number of events dropped because the notification queue was full.",
		}, []string{"kind"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePass implements monitor.PassObserver.
func (m *Metrics) ObservePass(summary monitor.PassSummary) {
	m.passesTotal.Inc()
	m.passDurationSeconds.Observe(summary.Elapsed.Seconds())
	m.recoveriesTotal.Add(float64(summary.Recovered))
	m.sourcesDisabled.Set(float64(summary.Disabled))
	m.processRSSBytes.Set(float64(summary.Resources.RSSMB * 1024 * 1024))
	m.lastPassTimestamp.Set(float64(summary.StartedAt.Add(summary.Elapsed).Unix()))

	for _, src := range summary.Sources {
		probe := "false"
		if src.Probe {
			probe = "true"
		}
		m.checksTotal.WithLabelValues(string(src.Outcome), probe).Inc()
		if src.Outcome != monitor.OutcomeSkipped {
			m.checkDurationSeconds.Observe(src.Duration.Seconds())
		}
	}
}

// ObserveDelivery implements notifier.DeliveryObserver.
func (m *Metrics) ObserveDelivery(sink, kind string, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.notificationsTotal.WithLabelValues(sink, kind, result).Inc()
	m.notificationDurationSeconds.WithLabelValues(sink).Observe(elapsed.Seconds())
}

// ObserveDrop implements notifier.DeliveryObserver.
func (m *Metrics) ObserveDrop(kind string) {
	m.notificationsDroppedTotal.WithLabelValues(kind).Inc()
}
