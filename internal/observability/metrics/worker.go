package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	enrichTotal    *prometheus.CounterVec
	enrichDuration *prometheus.HistogramVec
	enrichInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	enrichTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docenrich",
			Subsystem: "worker",
			Name:      "enrichment_total",
			Help:      "Total enrichment attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	enrichDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docenrich",
			Subsystem: "worker",
			Name:      "enrichment_duration_seconds",
			Help:      "Enrichment attempt duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	enrichInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docenrich",
			Subsystem: "worker",
			Name:      "enrichment_in_flight",
			Help:      "Number of in-flight enrichment tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	registry.MustRegister(enrichTotal, enrichDuration, enrichInFlight)

	return &WorkerMetrics{
		registry:       registry,
		enrichTotal:    enrichTotal,
		enrichDuration: enrichDuration,
		enrichInFlight: enrichInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEnrichment() {
	m.enrichInFlight.Inc()
}

func (m *WorkerMetrics) FinishEnrichment(service string, duration time.Duration, err error) {
	m.enrichInFlight.Dec()

	outcome := "completed"
	if err != nil {
		outcome = "aborted"
	}

	m.enrichTotal.WithLabelValues(service, outcome).Inc()
	m.enrichDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}
