// Package model defines the data structures shared across ghsubfinder.
//
// This package contains the following main types:
//   - RunReport: the result of one discovery run, filled by the crawler
//   - RunStats and QueryStats: run-wide and per-query counters
//   - RunSummary and DomainDiff: stored runs and their comparison
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, pipeline, report and database packages all use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
