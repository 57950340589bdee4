// Package metrics exposes prometheus counters for the tick pipeline.
// Every skipped item is observable here, never silently dropped
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ticks counts completed scheduler ticks by outcome (ok, aborted)
	Ticks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaktpost",
		Name:      "ticks_total",
		Help:      "Scheduler ticks by outcome.",
	}, []string{"outcome"})

	// ItemsFetched counts raw feed items pulled, by source kind
	ItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaktpost",
		Name:      "items_fetched_total",
		Help:      "Raw feed items fetched per source kind.",
	}, []string{"kind"})

	// ItemsSkipped counts items dropped during normalization, by reason
	// (malformed, invalid_coordinate)
	ItemsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaktpost",
		Name:      "items_skipped_total",
		Help:      "Items dropped during normalization by reason.",
	}, []string{"reason"})

	// Matches counts rule matches before dedup, by rule kind
	Matches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaktpost",
		Name:      "matches_total",
		Help:      "Rule matches before deduplication.",
	}, []string{"kind"})

	// Suppressed counts matches removed by dedup, by policy (content, cooldown)
	Suppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaktpost",
		Name:      "suppressed_total",
		Help:      "Matches suppressed by deduplication policy.",
	}, []string{"policy"})

	// RuleFailures counts per-rule fetch/dispatch failures
	RuleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaktpost",
		Name:      "rule_failures_total",
		Help:      "Per-rule execution failures by stage.",
	}, []string{"stage"})
)

// Handler returns the /metrics http handler
func Handler() http.Handler { return promhttp.Handler() }
