package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/approvenow/server/internal/port/outbound"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Approval metrics
	RequestTransitionsTotal *prometheus.CounterVec
	DecisionsTotal          *prometheus.CounterVec
	StaleConflictsTotal     *prometheus.CounterVec

	// Invitation metrics
	InvitationEventsTotal *prometheus.CounterVec
	SweepRunsTotal        *prometheus.CounterVec
	SweepExpiredTotal     prometheus.Counter

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered on reg.
func NewWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "approvenow"
	}
	f := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Approval metrics
		RequestTransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "approval",
				Name:      "request_transitions_total",
				Help:      "Request status transitions",
			},
			[]string{"from", "to"},
		),
		DecisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "approval",
				Name:      "decisions_total",
				Help:      "Recorded approver decisions",
			},
			[]string{"outcome"}, // approve, reject
		),
		StaleConflictsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "stale_conflicts_total",
				Help:      "Conditional writes that lost to a concurrent change",
			},
			[]string{"operation"},
		),

		// Invitation metrics
		InvitationEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invitation",
				Name:      "events_total",
				Help:      "Invitation lifecycle events",
			},
			[]string{"event"}, // created, resent, accepted, rejected, expired
		),
		SweepRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invitation",
				Name:      "sweep_runs_total",
				Help:      "Expiration sweep runs",
			},
			[]string{"result"},
		),
		SweepExpiredTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invitation",
				Name:      "sweep_expired_total",
				Help:      "Invitations expired by the sweep",
			},
		),

		// Notification metrics
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notification",
				Name:      "sends_total",
				Help:      "Notification dispatch outcomes",
			},
			[]string{"kind", "outcome"}, // outcome: sent, failed, duplicate
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordRequestTransition(from, to string) {
	m.RequestTransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordDecision(outcome string) {
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordInvitationEvent(event string) {
	m.InvitationEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordNotification(kind, outcome string) {
	m.NotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecordSweep(cleaned int64, err error) {
	if err != nil {
		m.SweepRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.SweepRunsTotal.WithLabelValues("ok").Inc()
	m.SweepExpiredTotal.Add(float64(cleaned))
}

func (m *Metrics) RecordStaleConflict(operation string) {
	m.StaleConflictsTotal.WithLabelValues(operation).Inc()
}

var _ outbound.MetricsPort = (*Metrics)(nil)
