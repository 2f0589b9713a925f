// Package metrics exposes Prometheus collectors for the lead scanner.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal          *prometheus.CounterVec
	resultsTotal          prometheus.Counter
	leadsStoredTotal      prometheus.Counter
	leadsDuplicateTotal   prometheus.Counter
	leadsFilteredTotal    *prometheus.CounterVec
	persistErrorsTotal    prometheus.Counter
	searchDurationSeconds prometheus.Histogram
	runDurationSeconds    prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		queriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscan_queries_total",
				Help: "Total number of search queries issued, labeled by status.",
			},
			[]string{"status"},
		)

		resultsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscan_results_total",
				Help: "Total number of raw search results returned.",
			},
		)

		leadsStoredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscan_leads_stored_total",
				Help: "Total number of new leads written to the store.",
			},
		)

		leadsDuplicateTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscan_leads_duplicate_total",
				Help: "Total number of leads skipped because the id already existed.",
			},
		)

		leadsFilteredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscan_leads_filtered_total",
				Help: "Total number of raw results rejected by the relevance filter, labeled by reason.",
			},
			[]string{"reason"},
		)

		persistErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscan_persist_errors_total",
				Help: "Total number of leads that failed to persist.",
			},
		)

		searchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadscan_search_duration_seconds",
				Help:    "Histogram of search API call latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadscan_run_duration_seconds",
				Help:    "Histogram of full ingestion run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)
	})
}

// RecordQuery counts one completed search call by status ("ok"/"error")
// and its latency.
func RecordQuery(status string, elapsed time.Duration) {
	if queriesTotal == nil {
		return
	}
	queriesTotal.WithLabelValues(status).Inc()
	searchDurationSeconds.Observe(elapsed.Seconds())
}

// RecordResults counts raw results returned by a query.
func RecordResults(n int) {
	if resultsTotal == nil {
		return
	}
	resultsTotal.Add(float64(n))
}

// RecordStored counts a newly written lead.
func RecordStored() {
	if leadsStoredTotal == nil {
		return
	}
	leadsStoredTotal.Inc()
}

// RecordDuplicate counts an already-known lead.
func RecordDuplicate() {
	if leadsDuplicateTotal == nil {
		return
	}
	leadsDuplicateTotal.Inc()
}

// RecordFiltered counts a rejected result by reason.
func RecordFiltered(reason string) {
	if leadsFilteredTotal == nil {
		return
	}
	leadsFilteredTotal.WithLabelValues(reason).Inc()
}

// RecordPersistError counts a failed store write.
func RecordPersistError() {
	if persistErrorsTotal == nil {
		return
	}
	persistErrorsTotal.Inc()
}

// RecordRunDuration observes the elapsed time of a whole run.
func RecordRunDuration(elapsed time.Duration) {
	if runDurationSeconds == nil {
		return
	}
	runDurationSeconds.Observe(elapsed.Seconds())
}
