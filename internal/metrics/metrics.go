package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	BookingsCreated   *prometheus.CounterVec
	StatusChanges     *prometheus.CounterVec
	CheckoutSessions  *prometheus.CounterVec
	WebhookEvents     *prometheus.CounterVec
	WebhookDuration   prometheus.Histogram
	AdminFallbackRead prometheus.Counter
}

// NewMetrics creates new prometheus metrics on a private registry
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		BookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "The total number of bookings created, by initial status",
		}, []string{"status"}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_changes_total",
			Help:      "The total number of booking status writes, by new status",
		}, []string{"status"}),
		CheckoutSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "The total number of checkout session requests, by result",
		}, []string{"result"}),
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "The total number of payment webhook deliveries, by type and outcome",
		}, []string{"type", "outcome"}),
		WebhookDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_processing_seconds",
			Help:      "Time taken to reconcile a webhook delivery",
			Buckets:   prometheus.DefBuckets,
		}),
		AdminFallbackRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_fallback_reads_total",
			Help:      "The total number of admin listings served from the file store",
		}),
	}
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
