// Package telemetry centralizes this process's Prometheus metrics: sync
// attempts, lookaside cache reconciliation, and build submissions,
// following the namespace/subsystem/name taxonomy of the teacher's
// pkg/metrics registry (`distrobaker_<subsystem>_<name>_<unit>`).
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "distrobaker"

// Metrics groups every counter/histogram this process exposes, registered
// against a private Registry rather than prometheus's global
// DefaultRegisterer so that multiple Metrics instances (as in tests) never
// collide on duplicate registration.
type Metrics struct {
	Registry *prometheus.Registry

	// SyncAttemptsTotal counts Component Pipeline invocations by
	// namespace and outcome ("success", "skipped", "failure").
	SyncAttemptsTotal *prometheus.CounterVec
	// SyncDurationSeconds times a full syncRepo call.
	SyncDurationSeconds *prometheus.HistogramVec

	// CacheReconcileTotal counts lookaside blobs reconciled by outcome
	// ("already_present", "uploaded", "failure").
	CacheReconcileTotal *prometheus.CounterVec
	// CacheBytesTransferred sums bytes downloaded from source and
	// re-uploaded to destination during reconciliation.
	CacheBytesTransferred prometheus.Counter

	// BuildsSubmittedTotal counts build submissions by namespace
	// ("rpms", "modules").
	BuildsSubmittedTotal *prometheus.CounterVec

	// SweepNoBuildTotal and SweepLookupFailedTotal distinguish a sweep
	// target with no tagged builds at all from one whose tagged build is
	// missing module name/stream extras (§9 open question 3).
	SweepNoBuildTotal      prometheus.Counter
	SweepLookupFailedTotal prometheus.Counter
}

// NewMetrics registers and returns a fresh Metrics instance.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		SyncAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "attempts_total",
			Help:      "Component Pipeline invocations by namespace and outcome.",
		}, []string{"namespace", "outcome"}),

		SyncDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of a full syncRepo invocation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"namespace"}),

		CacheReconcileTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "reconcile_total",
			Help:      "Lookaside cache blobs reconciled by outcome.",
		}, []string{"outcome"}),

		CacheBytesTransferred: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "bytes_transferred_total",
			Help:      "Bytes downloaded from source and re-uploaded to destination lookaside caches.",
		}),

		BuildsSubmittedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "submitted_total",
			Help:      "Build submissions by namespace.",
		}, []string{"namespace"}),

		SweepNoBuildTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "modules_no_build_total",
			Help:      "Sweep targets whose trigger tag has no tagged builds at all.",
		}),

		SweepLookupFailedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "modules_lookup_failed_total",
			Help:      "Tagged module builds missing name/stream extras during sweep discovery.",
		}),
	}
}
