// Package metrics exposes Prometheus instrumentation for the client's
// outbound operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all InternHub client metrics
const namespace = "internhub"

// Registry is the Prometheus registry for all client metrics.
var Registry = prometheus.NewRegistry()

// BackendRequestsTotal counts backend REST calls by endpoint and outcome.
var BackendRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of backend API requests",
	},
	[]string{"endpoint", "outcome"}, // outcome: ok|client_error|server_error|network_error
)

// BackendRequestDuration tracks backend request latency.
var BackendRequestDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Backend API request duration in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"endpoint"},
)

// ExchangesTotal counts session token exchanges by trigger and outcome.
var ExchangesTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_exchanges_total",
		Help:      "Total number of session token exchanges",
	},
	[]string{"trigger", "outcome"}, // trigger: login|register|federated|provider_event
)

// ExchangesDiscarded counts exchange results dropped by the fencing check
// because a newer exchange had already started.
var ExchangesDiscarded = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_exchanges_discarded_total",
		Help:      "Exchange results discarded because a newer exchange superseded them",
	},
)

// ModerationMutationsTotal counts moderation mutations by action and outcome.
var ModerationMutationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_mutations_total",
		Help:      "Total number of moderation mutations (approve, reject, create, delete)",
	},
	[]string{"action", "outcome"},
)

// ImportedOpportunities counts drafts produced by import runs.
var ImportedOpportunities = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imported_opportunities_total",
		Help:      "Total number of opportunity drafts produced by importers",
	},
	[]string{"source", "outcome"}, // outcome: created|skipped|failed
)
