package model

import (
	"slices"
	"time"
)

// RunSummary is one stored run as listed by the history database.
type RunSummary struct {
	ID          int64     `json:"id"`
	Target      string    `json:"target"`
	Extended    bool      `json:"extended"`
	Quick       bool      `json:"quick"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DomainCount int       `json:"domain_count"`
	Stats       RunStats  `json:"stats"`
}

// DomainDiff compares the domains of two runs for the same target.
type DomainDiff struct {
	Target string `json:"target"`

	// Base is the older run, Head the newer one.
	Base RunSummary `json:"base"`
	Head RunSummary `json:"head"`

	// Added holds domains present in Head but not Base, sorted.
	Added []string `json:"added"`

	// Removed holds domains present in Base but not Head, sorted.
	Removed []string `json:"removed"`

	// Unchanged is the number of domains present in both.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether the two runs differ.
func (d *DomainDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// DiffDomains computes the added and removed domains between two lists.
// The inputs need not be sorted; the outputs are.
func DiffDomains(base, head []string) (added, removed []string, unchanged int) {
	inBase := make(map[string]struct{}, len(base))
	for _, d := range base {
		inBase[d] = struct{}{}
	}
	inHead := make(map[string]struct{}, len(head))
	for _, d := range head {
		inHead[d] = struct{}{}
	}

	added = []string{}
	removed = []string{}
	for d := range inHead {
		if _, ok := inBase[d]; ok {
			unchanged++
		} else {
			added = append(added, d)
		}
	}
	for d := range inBase {
		if _, ok := inHead[d]; !ok {
			removed = append(removed, d)
		}
	}

	slices.Sort(added)
	slices.Sort(removed)
	return added, removed, unchanged
}
