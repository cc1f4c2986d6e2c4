package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "ngconsole"
)

var (
	// Backend Metrics
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Count of calls made to the platform REST backend.",
	}, []string{"service", "operation", "outcome"})

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Time taken by calls to the platform REST backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "operation"})

	// Wizard Metrics
	WizardTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_transitions_total",
		Help:      "Count of wizard step submissions by outcome.",
	}, []string{"wizard", "step", "outcome"})

	// List Page Metrics
	ListFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "list_fetches_total",
		Help:      "Count of list page fetches by outcome; stale fetches were superseded by a newer request.",
	}, []string{"page", "outcome"})
)
