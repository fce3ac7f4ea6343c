// Package metrics exposes rating counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alrater"

// Recorder is what the quote workflow reports to.
type Recorder interface {
	ObserveQuote(status string, elapsed time.Duration)
	ObserveFailure(kind string)
	ObserveSaved()
}

// Metrics owns its registry so tests and the server never share state.
type Metrics struct {
	registry *prometheus.Registry

	quotes   *prometheus.CounterVec
	failures *prometheus.CounterVec
	saved    prometheus.Counter
	duration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Completed rating runs by reconciliation status.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_failures_total",
			Help:      "Rating runs that failed, by error kind.",
		}, []string{"kind"}),
		saved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_saved_total",
			Help:      "Calculations persisted to the store.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "Time spent rating one policy.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.quotes, m.failures, m.saved, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveQuote(status string, elapsed time.Duration) {
	m.quotes.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFailure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSaved() {
	m.saved.Inc()
}

// Handler serves the registry for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Nop discards observations.
type Nop struct{}

func (Nop) ObserveQuote(string, time.Duration) {}
func (Nop) ObserveFailure(string)              {}
func (Nop) ObserveSaved()                      {}
