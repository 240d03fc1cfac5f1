// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - TextWriter: one domain per line, sorted; the default deliverable
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: a human-readable report with tables and alerts
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
//
// WriteFile is the single path to disk. Any failure there wraps
// ErrOutputWrite so callers can map it to a distinct exit status.
package report
