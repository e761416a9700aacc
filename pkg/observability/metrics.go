// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the bridge.
package observability

import "github.com/prometheus/client_golang/prometheus"

// BridgeBuckets defines histogram buckets suited for host decision
// latencies, from sub-second answers up to the 180s timeout budget.
var BridgeBuckets = []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30, 60, 180}

var (
	// RequestsTotal counts all HTTP requests by route class and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bruecke_requests_total",
			Help: "Total requests",
		},
		[]string{"route", "status"},
	)

	// RequestDuration records request duration in seconds by route class.
	// For streaming responses this spans the whole pump lifetime.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bruecke_request_duration_seconds",
			Help:    "Request duration",
			Buckets: BridgeBuckets,
		},
		[]string{"route"},
	)

	// StreamsActive tracks the number of SSE pumps currently running.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bruecke_streams_active",
			Help: "Active SSE streams",
		},
	)

	// AdmissionRejectedTotal counts requests rejected before the host was
	// notified, by route class.
	AdmissionRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bruecke_admission_rejected_total",
			Help: "Admission rejections",
		},
		[]string{"route"},
	)

	// NotificationsTotal counts host-bound signals by kind.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bruecke_notifications_total",
			Help: "Host notifications",
		},
		[]string{"kind"},
	)

	// HostDecisionsTotal counts decision calls by kind and outcome
	// (applied or stale).
	HostDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bruecke_host_decisions_total",
			Help: "Host decision calls",
		},
		[]string{"decision", "outcome"},
	)

	// TimeoutsTotal counts requests force-completed because the host
	// never decided within the budget.
	TimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bruecke_host_timeouts_total",
			Help: "Host decision timeouts",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamsActive,
		AdmissionRejectedTotal,
		NotificationsTotal,
		HostDecisionsTotal,
		TimeoutsTotal,
	)
}
