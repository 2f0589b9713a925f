package leads

import "time"

// QueryOutcome aggregates counters for a single query.
type QueryOutcome struct {
	Query      string `json:"query"`
	Results    int    `json:"results"`
	Stored     int    `json:"stored"`
	Duplicates int    `json:"duplicates"`
	Filtered   int    `json:"filtered"`
	// FilteredByReason breaks Filtered down by rejection reason.
	FilteredByReason map[string]int `json:"filtered_by_reason,omitempty"`
	// Error holds the search failure text when the query could not be
	// executed at all.
	Error string `json:"error,omitempty"`
	// PersistErrors lists per-lead store failures for this query.
	PersistErrors []string `json:"persist_errors,omitempty"`
}

// RecordFiltered counts one rejected result under its reason.
func (q *QueryOutcome) RecordFiltered(reason string) {
	q.Filtered++
	if q.FilteredByReason == nil {
		q.FilteredByReason = make(map[string]int)
	}
	q.FilteredByReason[reason]++
}

// Failed reports whether the query's search call itself failed.
func (q QueryOutcome) Failed() bool { return q.Error != "" }

// Summary is the sole observable output of a run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	QueriesAttempted int `json:"queries_attempted"`
	QueriesFailed    int `json:"queries_failed"`
	Results          int `json:"results"`
	Stored           int `json:"stored"`
	Duplicates       int `json:"duplicates"`
	Filtered         int `json:"filtered"`
	// FilteredByReason aggregates the per-query reason breakdowns.
	FilteredByReason map[string]int `json:"filtered_by_reason,omitempty"`
	PersistErrors    int            `json:"persist_errors"`

	Queries []QueryOutcome `json:"queries"`

	// StoredLeads samples the leads written this run, for the report.
	StoredLeads []Lead `json:"-"`
}

// Add folds one query outcome into the totals.
func (s *Summary) Add(q QueryOutcome) {
	s.QueriesAttempted++
	if q.Failed() {
		s.QueriesFailed++
	}
	s.Results += q.Results
	s.Stored += q.Stored
	s.Duplicates += q.Duplicates
	s.Filtered += q.Filtered
	for reason, n := range q.FilteredByReason {
		if s.FilteredByReason == nil {
			s.FilteredByReason = make(map[string]int)
		}
		s.FilteredByReason[reason] += n
	}
	s.PersistErrors += len(q.PersistErrors)
	s.Queries = append(s.Queries, q)
}

// PartialFailure reports whether any query or lead failed while the
// run as a whole still completed.
func (s *Summary) PartialFailure() bool {
	return s.QueriesFailed > 0 || s.PersistErrors > 0
}
