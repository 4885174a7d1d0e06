// Package metrics exposes the prometheus instruments for background
// materialization and backup operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EntriesMaterialized counts ledger entries created by the recurring
	// materializer, labelled by kind ("expense" or "income").
	EntriesMaterialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intellibudget",
		Subsystem: "recurring",
		Name:      "entries_materialized_total",
		Help:      "Ledger entries created by the recurring materializer.",
	}, []string{"kind"})

	// TemplatesSkipped counts recurring templates rejected by validation
	// during a reconcile pass.
	TemplatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intellibudget",
		Subsystem: "recurring",
		Name:      "templates_skipped_total",
		Help:      "Recurring templates skipped for failing validation.",
	}, []string{"kind"})

	// ReconcilePasses counts completed reconcile passes, labelled by
	// outcome ("ok", "coalesced" or "error").
	ReconcilePasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intellibudget",
		Subsystem: "recurring",
		Name:      "reconcile_passes_total",
		Help:      "Reconcile passes by outcome.",
	}, []string{"outcome"})

	// RestoreSteps counts backup restore steps, labelled by step name and
	// outcome.
	RestoreSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intellibudget",
		Subsystem: "backup",
		Name:      "restore_steps_total",
		Help:      "Backup restore steps by name and outcome.",
	}, []string{"step", "outcome"})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
