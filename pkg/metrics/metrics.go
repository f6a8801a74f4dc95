// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnDuration tracks chat turn round-trip duration.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_turn_duration_seconds",
			Help:    "Chat turn round-trip duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	// TurnsTotal tracks chat turns by resulting agent status.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_turns_total",
			Help: "Total chat turns by resulting agent status",
		},
		[]string{"status"},
	)

	// TurnFailuresTotal tracks chat turns that failed in transport.
	TurnFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_turn_failures_total",
			Help: "Total chat turns that failed in transport",
		},
	)

	// ItineraryFetchesTotal tracks finalized itinerary fetches by result.
	ItineraryFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_itinerary_fetches_total",
			Help: "Total finalized itinerary fetches by result",
		},
		[]string{"result"},
	)

	// DraftsHeld counts draft itineraries held for review across all live
	// sessions. Each session contributes at most one.
	DraftsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "planner_drafts_held",
			Help: "Draft itineraries currently held for review across sessions",
		},
	)

	// AgentRequestDuration tracks mock agent HTTP request duration.
	AgentRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockagent_request_duration_seconds",
			Help:    "Mock agent HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// AgentRequestsTotal tracks total mock agent HTTP requests.
	AgentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockagent_requests_total",
			Help: "Total mock agent HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// RecordTurn records metrics for a completed chat turn.
func RecordTurn(status string, duration float64) {
	TurnDuration.WithLabelValues(status).Observe(duration)
	TurnsTotal.WithLabelValues(status).Inc()
}

// RecordAgentRequest records metrics for a mock agent HTTP request.
func RecordAgentRequest(method, path, status string, duration float64) {
	AgentRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	AgentRequestsTotal.WithLabelValues(method, path, status).Inc()
}
