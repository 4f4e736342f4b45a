// Package metrics exposes dispatch and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"fanout/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ notification.Recorder = (*Prometheus)(nil)

// Prometheus records metrics on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	attempts         *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	fanout           *prometheus.HistogramVec

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// NewPrometheus creates the collectors, including Go runtime and process metrics.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_delivery_attempts_total",
			Help: "Delivery attempts by channel and resulting status.",
		}, []string{"channel", "status"}),
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_dispatches_total",
			Help: "Dispatch calls by category.",
		}, []string{"category"}),
		dispatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fanout_dispatch_duration_seconds",
			Help:    "Duration of a full dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),
		fanout: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fanout_dispatch_fanout",
			Help:    "Log entries produced per dispatch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"category"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"path", "method", "status"}),
	}
}

// RecordAttempt implements notification.Recorder.
func (p *Prometheus) RecordAttempt(channel notification.Channel, status notification.Status) {
	p.attempts.WithLabelValues(string(channel), string(status)).Inc()
}

// RecordDispatch implements notification.Recorder.
func (p *Prometheus) RecordDispatch(category notification.Category, attempts int, took time.Duration) {
	c := string(category)
	p.dispatches.WithLabelValues(c).Inc()
	p.dispatchDuration.WithLabelValues(c).Observe(took.Seconds())
	p.fanout.WithLabelValues(c).Observe(float64(attempts))
}

// ObserveRequest records one served HTTP request.
func (p *Prometheus) ObserveRequest(path, method string, status int, took time.Duration) {
	s := strconv.Itoa(status)
	p.httpDuration.WithLabelValues(path, method, s).Observe(took.Seconds())
	p.httpRequests.WithLabelValues(path, method, s).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
