// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonews_source_fetches_total",
			Help: "Source fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	SourceCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonews_source_candidates_total",
			Help: "Candidates extracted per source",
		},
		[]string{"source"},
	)

	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gonews_source_duration_seconds",
			Help:    "Duration of source fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonews_completions_total",
			Help: "Completion service calls by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gonews_completion_duration_seconds",
			Help:    "Duration of completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonews_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gonews_search_requests_total",
			Help: "Search requests by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gonews_search_duration_seconds",
			Help:    "End-to-end search duration in seconds",
			Buckets: []float64{0.05, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)

// ObserveSource records one source fetch. Its signature matches
// search.Observer.
func ObserveSource(source, outcome string, candidates int, elapsed time.Duration) {
	SourceFetchesTotal.WithLabelValues(source, outcome).Inc()
	SourceCandidatesTotal.WithLabelValues(source).Add(float64(candidates))
	SourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveCompletion records one completion call. Its signature matches
// llm.Observer.
func ObserveCompletion(stage, outcome string, elapsed time.Duration) {
	CompletionsTotal.WithLabelValues(stage, outcome).Inc()
	CompletionDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// ObserveCache records a cache lookup.
func ObserveCache(hit bool) {
	if hit {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()
}

// ObserveRequest records a finished search with outcome "ok", "cached",
// "invalid" or "error".
func ObserveRequest(outcome string, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(outcome).Inc()
	RequestDuration.Observe(elapsed.Seconds())
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
