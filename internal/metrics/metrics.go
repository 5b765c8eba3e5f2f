// Package metrics holds the Prometheus collectors for scheduling and mail delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scheduler"

// Metrics groups the application collectors
type Metrics struct {
	AppointmentsCreated  prometheus.Counter
	AppointmentsCanceled prometheus.Counter
	AppointmentsRejected *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	EnqueueFailures      prometheus.Counter
	MailsSent            prometheus.Counter
	MailsFailed          *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AppointmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Appointments booked.",
		}),
		AppointmentsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_canceled_total",
			Help:      "Appointments canceled by their requester.",
		}),
		AppointmentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_rejected_total",
			Help:      "Create and cancel requests rejected by a business rule.",
		}, []string{"operation", "reason"}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Provider notifications that could not be stored.",
		}),
		EnqueueFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellation_enqueue_failures_total",
			Help:      "Cancellation mail jobs that could not be published.",
		}),
		MailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_sent_total",
			Help:      "Cancellation emails delivered to the mail server.",
		}),
		MailsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_failed_total",
			Help:      "Cancellation email attempts that failed.",
		}, []string{"outcome"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AppointmentsCreated,
			m.AppointmentsCanceled,
			m.AppointmentsRejected,
			m.NotificationFailures,
			m.EnqueueFailures,
			m.MailsSent,
			m.MailsFailed,
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
		)
	}

	return m
}

// NewNop returns unregistered collectors for callers that do not export metrics
func NewNop() *Metrics {
	return New(nil)
}
