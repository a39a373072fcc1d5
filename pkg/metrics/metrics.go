// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// DrainPassesTotal counts drain passes by outcome.
	DrainPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_drain_passes_total",
			Help: "Total drain passes executed",
		},
		[]string{"outcome"},
	)

	// DrainPassDuration tracks drain pass duration.
	DrainPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_drain_pass_duration_seconds",
			Help:    "Drain pass duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// QueueEntriesProcessedTotal counts entries handed to the processing step
	// and consumed.
	QueueEntriesProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_entries_processed_total",
			Help: "Total queue entries processed",
		},
	)

	// QueueEntriesFailedTotal counts entries the processing step reported as
	// failed.
	QueueEntriesFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_entries_failed_total",
			Help: "Total queue entries that failed processing",
		},
	)

	// SweepsTotal counts cleanup sweeps by outcome.
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_sweeps_total",
			Help: "Total cleanup sweeps executed",
		},
		[]string{"outcome"},
	)

	// SweepDeletedTotal counts queue entries removed by the sweeper.
	SweepDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_sweep_deleted_total",
			Help: "Total queue entries deleted by cleanup sweeps",
		},
	)

	// TransitionsTotal counts conversation status transitions.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_transitions_total",
			Help: "Total conversation status transitions",
		},
		[]string{"status"},
	)

	// ConversationsTotal counts conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal counts message records appended, by sender role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages recorded",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDrainPass records the outcome of one drain pass.
func RecordDrainPass(outcome string, duration float64, processed, failed int) {
	DrainPassesTotal.WithLabelValues(outcome).Inc()
	DrainPassDuration.Observe(duration)
	QueueEntriesProcessedTotal.Add(float64(processed))
	QueueEntriesFailedTotal.Add(float64(failed))
}

// RecordSweep records the outcome of one cleanup sweep.
func RecordSweep(outcome string, deleted int) {
	SweepsTotal.WithLabelValues(outcome).Inc()
	SweepDeletedTotal.Add(float64(deleted))
}
