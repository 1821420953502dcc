// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	Regenerations        *prometheus.CounterVec
	RegenerationDuration prometheus.Histogram
	GroupsCreated        prometheus.Counter
	UnassignedGroups     prometheus.Counter
	VehicleAssignments   *prometheus.CounterVec
	GroupTransitions     *prometheus.CounterVec
	ManifestRowsImported *prometheus.CounterVec
	NotificationsSent    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// so repeated construction does not panic on duplicate registration.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Regenerations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regenerations_total",
			Help:      "Transport group regenerations by direction and outcome.",
		}, []string{"direction", "outcome"}),
		RegenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "regeneration_duration_seconds",
			Help:      "Time taken to rebuild automatic transport groups.",
			Buckets:   prometheus.DefBuckets,
		}),
		GroupsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_groups_created_total",
			Help:      "Transport groups created by regeneration or manually.",
		}),
		UnassignedGroups: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_groups_unassigned_total",
			Help:      "Groups left pending because no vehicle could carry them.",
		}),
		VehicleAssignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_assignments_total",
			Help:      "Manual vehicle assignments by outcome.",
		}, []string{"outcome"}),
		GroupTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_group_transitions_total",
			Help:      "Transport group status changes by target status.",
		}, []string{"to"}),
		ManifestRowsImported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_rows_imported_total",
			Help:      "Manifest rows processed by outcome.",
		}, []string{"outcome"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Guest notifications by type and outcome.",
		}, []string{"type", "outcome"}),
	}
}

// NewNop returns collectors registered on a private registry, for callers
// that do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry(), "nop")
}
