// Package metrics exposes Prometheus instruments for the QR form service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service instruments and their registry.
type Metrics struct {
	registry *prometheus.Registry

	generateTotal    *prometheus.CounterVec
	generateDuration prometheus.Histogram
}

// New creates a private registry with the generate counters and, when
// sessions is non-nil, a gauge that reports the live session count.
func New(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		generateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrform_generate_total",
			Help: "Generate actions by outcome.",
		}, []string{"outcome"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrform_generate_seconds",
			Help:    "Time spent encoding and exporting a QR code.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	reg.MustRegister(m.generateTotal, m.generateDuration)

	if sessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "qrform_sessions_active",
			Help: "Live form sessions.",
		}, func() float64 { return float64(sessions()) }))
	}

	return m
}

// ObserveGenerate records one generate action.
func (m *Metrics) ObserveGenerate(outcome string, d time.Duration) {
	m.generateTotal.WithLabelValues(outcome).Inc()
	m.generateDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
