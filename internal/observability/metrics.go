package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. Labels are bounded enumerations (area, code, kind,
// outcome) so cardinality stays fixed.
var (
	InvitesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_invites_created_total",
			Help: "Invites minted, by product area.",
		},
		[]string{"area"},
	)

	InvitesAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_invites_accepted_total",
			Help: "Successful invite acceptances, by product area.",
		},
		[]string{"area"},
	)

	LinkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_link_failures_total",
			Help: "Failed invite acceptances, by link error code.",
		},
		[]string{"code"},
	)

	BestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_best_effort_failures_total",
			Help: "Inline best-effort writes that failed and were queued, by kind.",
		},
		[]string{"kind"},
	)

	OutboxProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_outbox_processed_total",
			Help: "Outbox entries processed, by kind and result (ok, retry, dead).",
		},
		[]string{"kind", "result"},
	)

	TurnOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_ai_turns_total",
			Help: "AI turns, by outcome (structured, fallback, error).",
		},
		[]string{"outcome"},
	)

	MergeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masterwork_turn_merge_failures_total",
			Help: "Per-target failures while applying AI turn actions.",
		},
		[]string{"target"},
	)
)

func init() {
	prometheus.MustRegister(
		InvitesCreated,
		InvitesAccepted,
		LinkFailures,
		BestEffortFailures,
		OutboxProcessed,
		TurnOutcomes,
		MergeFailures,
	)
}
