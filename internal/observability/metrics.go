package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors exported by the service.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	httpErrors        *prometheus.CounterVec
	tasks             *prometheus.CounterVec
	enqueueFailures   *prometheus.CounterVec
	webhookDeliveries *prometheus.CounterVec
	auditFailures     prometheus.Counter
}

// NewMetrics registers collectors on the given registerer.
// A nil registerer uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP requests that ended with a domain error",
			},
			[]string{"method", "route", "code"},
		),
		tasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "side_effect_tasks_total",
				Help: "Side-effect tasks processed by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		enqueueFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "side_effect_enqueue_failures_total",
				Help: "Side-effect tasks that could not be enqueued",
			},
			[]string{"kind"},
		),
		webhookDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_deliveries_total",
				Help: "Webhook deliveries by event and result",
			},
			[]string{"event", "result"},
		),
		auditFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audit_record_failures_total",
				Help: "Audit entries that failed to persist",
			},
		),
	}
}

// RecordRequest observes a finished HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, route, code).Inc()
}

// RecordTask counts a side-effect task outcome.
func (m *Metrics) RecordTask(kind, outcome string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(kind, outcome).Inc()
}

// RecordEnqueueFailure counts a task dropped before reaching the queue.
func (m *Metrics) RecordEnqueueFailure(kind string) {
	if m == nil {
		return
	}
	m.enqueueFailures.WithLabelValues(kind).Inc()
}

// RecordWebhookDelivery counts one delivery attempt series to a subscription.
func (m *Metrics) RecordWebhookDelivery(event string, success bool) {
	if m == nil {
		return
	}
	result := "failed"
	if success {
		result = "delivered"
	}
	m.webhookDeliveries.WithLabelValues(event, result).Inc()
}

// RecordAuditFailure counts audit writes that were swallowed.
func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}
