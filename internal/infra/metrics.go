package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchemaOps counts schema edits by operation and outcome.
	SchemaOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "donortrack",
		Name:      "schema_operations_total",
		Help:      "Custom field schema operations by op and result.",
	}, []string{"op", "result"})

	// VersionConflicts counts optimistic write retries on the form document.
	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "donortrack",
		Name:      "form_version_conflicts_total",
		Help:      "Form saves that lost an optimistic concurrency race.",
	})

	// DonationWrites counts donation writes by kind.
	DonationWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "donortrack",
		Name:      "donation_writes_total",
		Help:      "Donation creates, updates and deletes.",
	}, []string{"op", "result"})

	// LiveSubscribers tracks open live update subscriptions.
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "donortrack",
		Name:      "live_subscribers",
		Help:      "Open live update subscriptions.",
	})

	// ReconcileDrift counts events whose stored totals disagreed with their donations.
	ReconcileDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "donortrack",
		Name:      "reconcile_drift_total",
		Help:      "Events whose running totals were corrected by reconciliation.",
	})
)

// HTTPRequests counts served requests by route pattern.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "donortrack",
	Name:      "http_requests_total",
	Help:      "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

// SQLDuration observes statement latency by operation.
var SQLDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "donortrack",
	Name:      "sql_duration_seconds",
	Help:      "Duration of marked SQL statements.",
	Buckets:   prometheus.DefBuckets,
}, []string{"op"})
