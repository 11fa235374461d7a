package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// All metrics are low-cardinality: event types and skip reasons are small
// fixed sets, never per-event ids.

var (
	// EventsReceived counts MQTT event payloads by lifecycle type
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osprey_events_received_total",
			Help: "Camera events received from MQTT by lifecycle type",
		},
		[]string{"type"},
	)

	// EventsSkipped counts events dropped before an alert decision
	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osprey_events_skipped_total",
			Help: "Events dropped before routing, by reason",
		},
		[]string{"reason"},
	)

	// EventsProcessed counts events that reached the alert router
	EventsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osprey_events_processed_total",
			Help: "Events that completed classification and routing",
		},
	)

	// ClipDownloads counts clip retrieval outcomes
	ClipDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osprey_clip_downloads_total",
			Help: "Clip retrieval outcomes",
		},
		[]string{"outcome"},
	)

	// InferenceLatency tracks how long the collaborator takes per clip
	InferenceLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osprey_inference_latency_seconds",
			Help:    "Inference collaborator latency per clip",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// AlertsSent counts successful backend dispatches
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osprey_alerts_sent_total",
			Help: "Incidents delivered to an alert backend",
		},
		[]string{"backend"},
	)

	// AlertsFailed counts backend dispatch failures
	AlertsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osprey_alerts_failed_total",
			Help: "Incidents a backend failed to deliver",
		},
		[]string{"backend"},
	)

	// AlertsSuppressed counts normal-activity incidents held back by policy
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osprey_alerts_suppressed_total",
			Help: "Normal-activity incidents suppressed by configuration",
		},
	)
)
