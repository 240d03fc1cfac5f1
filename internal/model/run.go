package model

import (
	"time"
)

// QueryStatus tells how the page loop of one search query ended.
type QueryStatus string

const (
	// QueryCompleted means a page came back empty.
	QueryCompleted QueryStatus = "completed"

	// QueryMaxPages means the page limit was reached.
	QueryMaxPages QueryStatus = "max_pages"

	// QueryAbandoned means a search request failed with a network or
	// transient error and the remaining pages were skipped.
	QueryAbandoned QueryStatus = "abandoned"

	// QueryExhausted means no credential was available and the run was
	// configured to stop.
	QueryExhausted QueryStatus = "exhausted"

	// QueryCancelled means the run was interrupted.
	QueryCancelled QueryStatus = "cancelled"

	// QuerySkipped means the query never ran because an earlier one ended
	// the run.
	QuerySkipped QueryStatus = "skipped"
)

// QueryStats records what a single search query produced.
type QueryStats struct {
	// Query is the exact search string sent to the API.
	Query string `json:"query"`

	// Status is how the page loop ended.
	Status QueryStatus `json:"status"`

	// Reason is the outcome code that abandoned the query, e.g. "http_422".
	Reason string `json:"reason,omitempty"`

	// TotalCount is the match count reported by the API on the first page.
	TotalCount int `json:"total_count"`

	// Pages is the number of pages that returned items.
	Pages int `json:"pages"`

	// Items is the number of result items across those pages.
	Items int `json:"items"`

	// NewDomains is the number of domains first seen during this query.
	NewDomains int `json:"new_domains"`
}

// RunStats aggregates counters for the whole run.
type RunStats struct {
	Queries          int `json:"queries"`
	QueriesAbandoned int `json:"queries_abandoned"`
	Pages            int `json:"pages"`
	Items            int `json:"items"`

	// DuplicateItems counts items skipped because an earlier page or query
	// already scheduled them.
	DuplicateItems int `json:"duplicate_items"`

	FetchOK          int `json:"fetch_ok"`
	FetchMiss        int `json:"fetch_miss"`
	FetchRateLimited int `json:"fetch_rate_limited"`

	SearchRateLimited int `json:"search_rate_limited"`

	// ExhaustionWaits counts the sleeps taken because every credential was
	// cooling down.
	ExhaustionWaits int `json:"exhaustion_waits"`
}

// RunReport is the result of one subdomain discovery run.
//
// Design decision: The report is a plain data holder filled by the crawler
// and then passed through the remaining pipeline steps, so the history
// database and every output format read the same values.
type RunReport struct {
	// Target is the normalized domain the run searched for.
	Target string `json:"target"`

	// Keyword is the string quoted in every search query.
	Keyword string `json:"keyword"`

	// Extended is true when the loose extended pattern was used.
	Extended bool `json:"extended"`

	// Quick is true when only the bare keyword query was run.
	Quick bool `json:"quick"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Domains is the sorted set of discovered domains.
	Domains []string `json:"domains"`

	// Stats holds run-wide counters.
	Stats RunStats `json:"stats"`

	// Queries holds per-query results in plan order.
	Queries []QueryStats `json:"queries,omitempty"`

	// Exhausted is true when the run stopped because every credential was
	// rate limited.
	Exhausted bool `json:"exhausted"`

	// Interrupted is true when the run was cancelled before the plan finished.
	Interrupted bool `json:"interrupted"`

	// Credentials is the number of distinct credentials in the pool.
	Credentials int `json:"credentials"`

	// OutputPath is where the deliverable was written.
	OutputPath string `json:"output_path,omitempty"`

	// HistoryRunID is the run's row id in the history database, or 0.
	HistoryRunID int64 `json:"history_run_id,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"-"`

	// Error is the first fatal step error.
	Error error `json:"-"`

	// ErrorMessage is Error as a string for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates an empty report for target.
func NewRunReport(target string, extended, quick bool) *RunReport {
	return &RunReport{
		Target:   target,
		Extended: extended,
		Quick:    quick,
		Domains:  []string{},
	}
}

// Duration returns the crawl's wall time, or 0 when it has not finished.
func (r *RunReport) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// DomainCount returns the number of discovered domains.
func (r *RunReport) DomainCount() int {
	return len(r.Domains)
}

// HasDomains reports whether anything was found.
func (r *RunReport) HasDomains() bool {
	return len(r.Domains) > 0
}

// Mode returns "extended" or "standard".
func (r *RunReport) Mode() string {
	if r.Extended {
		return "extended"
	}
	return "standard"
}
