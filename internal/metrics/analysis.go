package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// All metrics are low-cardinality (no video_hash/job_id labels).

var (
	// AnalysesTotal counts completed analyses by overall severity.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimewatch_analyses_total",
			Help: "Completed analyses by overall severity",
		},
		[]string{"severity"},
	)

	// AnalysisDuration tracks engine run time.
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crimewatch_analysis_duration_ms",
			Help:    "Engine analysis duration in milliseconds",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// EventsEmittedTotal counts timeline events by type.
	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimewatch_events_emitted_total",
			Help: "Timeline events emitted by event type",
		},
		[]string{"type"},
	)

	// CacheLookupsTotal counts report cache hits and misses.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crimewatch_cache_lookups_total",
			Help: "Report cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// NarrativeFallbacksTotal counts narratives served by the
	// deterministic template instead of the model.
	NarrativeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crimewatch_narrative_fallbacks_total",
			Help: "Narratives generated via the deterministic fallback",
		},
	)

	// JobsInFlight gauges jobs currently being processed by this worker.
	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crimewatch_jobs_in_flight",
			Help: "Analysis jobs currently being processed",
		},
	)
)

func RecordAnalysis(severity string, durationMs float64) {
	AnalysesTotal.WithLabelValues(severity).Inc()
	AnalysisDuration.Observe(durationMs)
}

func RecordEvents(eventType string, count int) {
	EventsEmittedTotal.WithLabelValues(eventType).Add(float64(count))
}

func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}
