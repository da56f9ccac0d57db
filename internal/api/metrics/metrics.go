// Package metrics defines and registers all custom Prometheus metrics for the
// labdesk identity service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Resolution metrics ────────────────────────────────────────────────────────

// ResolutionsTotal counts identity resolutions.
// Label:
//   - kind: "owner", "employee" or "unaffiliated"
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Total number of identity resolutions, by resulting identity kind.",
	},
	[]string{"kind"},
)

// LookupFailuresTotal counts downstream lookups that degraded a resolution.
// Label:
//   - lookup: "profile", "subscription", "employee", "employer_profile",
//     "employer_subscription", "role_permission", "stages"
var LookupFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_failures_total",
		Help:      "Total number of failed lookups that degraded an identity resolution.",
	},
	[]string{"lookup"},
)

// ResolutionDuration measures Resolve end to end.
var ResolutionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolution_duration_seconds",
		Help:      "Duration of identity resolution including all lookups.",
		Buckets:   prometheus.DefBuckets,
	},
)

// LegacyStagesDroppedTotal counts legacy stage references that had no
// canonical mapping.
var LegacyStagesDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "legacy_stages_dropped_total",
		Help:      "Total number of legacy stage references dropped during normalization.",
	},
)

// ── Impersonation metrics ─────────────────────────────────────────────────────

// ImpersonationTransitionsTotal counts impersonation lifecycle transitions.
// Labels:
//   - action: "started", "ended", "expired", "conflict", "failed"
var ImpersonationTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "impersonation_transitions_total",
		Help:      "Total number of impersonation state transitions, by action.",
	},
	[]string{"action"},
)

// AuditQueueDepth tracks pending audit events in each dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "success" or "failure"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// AuditDroppedTotal counts audit events discarded because their worker
// channel was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit events dropped on a full dispatcher channel.",
	},
)
