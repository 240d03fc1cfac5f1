package report

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/ghsubfinder/internal/model"
)

// maxPieSlices bounds the pie chart; smaller groups are merged into "other".
const maxPieSlices = 8

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeDomains(md, report)
	w.writeQueries(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteDiff outputs a comparison of two runs in Markdown format.
func (w *MarkdownWriter) WriteDiff(diff *model.DomainDiff) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("ghsubfinder History: " + diff.Target)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Run", "ID", "Started", "Mode", "Domains"},
		Rows: [][]string{
			summaryRow("Base", diff.Base),
			summaryRow("Head", diff.Head),
		},
	})
	md.PlainText("")

	if !diff.HasChanges() {
		md.Note("No changes between the two runs.")
		md.PlainText("")
	} else {
		md.Importantf("%d domain(s) added, %d removed, %d unchanged.",
			len(diff.Added), len(diff.Removed), diff.Unchanged)
		md.PlainText("")
	}

	if len(diff.Added) > 0 {
		md.H2("Added")
		md.PlainText("")
		md.BulletList(codeAll(diff.Added)...)
		md.PlainText("")
	}
	if len(diff.Removed) > 0 {
		md.H2("Removed")
		md.PlainText("")
		md.BulletList(codeAll(diff.Removed)...)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("ghsubfinder Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target + "`"},
			{"Keyword", "`" + report.Keyword + "`"},
			{"Mode", modeText(report.Extended, report.Quick)},
			{"Started", formatTime(report.StartedAt)},
			{"Duration", report.Duration().Round(time.Second).String()},
			{"Credentials", strconv.Itoa(report.Credentials)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	switch {
	case report.Exhausted:
		return "⚠️ Stopped: credentials exhausted (partial results)"
	case report.Interrupted:
		return "⚠️ Interrupted (partial results)"
	case report.ErrorMessage != "":
		return "❌ Error - " + report.ErrorMessage
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the counters table and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	s := report.Stats

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Queries run", strconv.Itoa(s.Queries)},
			{"Queries abandoned", strconv.Itoa(s.QueriesAbandoned)},
			{"Result pages", strconv.Itoa(s.Pages)},
			{"Result items", strconv.Itoa(s.Items)},
			{"Duplicate items", strconv.Itoa(s.DuplicateItems)},
			{"Files downloaded", strconv.Itoa(s.FetchOK)},
			{"Files missed", strconv.Itoa(s.FetchMiss)},
			{"Rate-limited downloads", strconv.Itoa(s.FetchRateLimited)},
			{"Rate-limited searches", strconv.Itoa(s.SearchRateLimited)},
			{"**Domains**", "**" + strconv.Itoa(report.DomainCount()) + "**"},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report)
}

// writeAlert writes an alert describing the overall outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.Exhausted:
		md.Cautionf(
			"All %d credential(s) were rate limited and the run stopped early. %d domain(s) were found before that.",
			report.Credentials, report.DomainCount(),
		)
	case report.Stats.QueriesAbandoned > 0:
		md.Warningf(
			"%d of %d queries were abandoned after a search error; results may be incomplete.",
			report.Stats.QueriesAbandoned, report.Stats.Queries,
		)
	case !report.HasDomains():
		md.Note("No domains matching the target were found.")
	default:
		md.Tip("Run completed without search errors.")
	}
	md.PlainText("")
}

// writeDomains writes the discovered domains grouped by registrable domain.
func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Domains")
	md.PlainText("")

	if !report.HasDomains() {
		md.PlainText("No domains found.")
		md.PlainText("")
		return
	}

	keys, groups := groupByRegistrable(report.Domains)
	if len(keys) > 1 {
		w.writePieChart(md, keys, groups)
	}

	for _, key := range keys {
		md.PlainText("### " + key + " (" + strconv.Itoa(len(groups[key])) + ")")
		md.PlainText("")
		md.BulletList(codeAll(groups[key])...)
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of domains per registrable domain.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, keys []string, groups map[string][]string) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Domains by Registrable Domain"),
		piechart.WithShowData(true),
	)

	ordered := slices.Clone(keys)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return len(groups[b]) - len(groups[a])
	})

	other := 0
	for i, key := range ordered {
		if i < maxPieSlices {
			chart.LabelAndIntValue(key, uint64(len(groups[key])))
			continue
		}
		other += len(groups[key])
	}
	if other > 0 {
		chart.LabelAndIntValue("other", uint64(other))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeQueries writes one row per query of the plan.
func (w *MarkdownWriter) writeQueries(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Queries) == 0 {
		return
	}

	md.H2("Queries")
	md.PlainText("")

	rows := make([][]string, len(report.Queries))
	for i, q := range report.Queries {
		status := string(q.Status)
		if q.Reason != "" {
			status += " (" + q.Reason + ")"
		}
		rows[i] = []string{
			"`" + q.Query + "`",
			status,
			strconv.Itoa(q.TotalCount),
			strconv.Itoa(q.Pages),
			strconv.Itoa(q.Items),
			strconv.Itoa(q.NewDomains),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Query", "Status", "Total", "Pages", "Items", "New Domains"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ghsubfinder](https://github.com/nao1215/ghsubfinder)*")
}

// groupByRegistrable groups domains by their eTLD+1 using the public suffix
// list. Domains without a registrable part (e.g. a bare public suffix) form
// their own group. Keys and group members are sorted.
func groupByRegistrable(domains []string) ([]string, map[string][]string) {
	groups := make(map[string][]string)
	for _, d := range domains {
		key, err := publicsuffix.EffectiveTLDPlusOne(d)
		if err != nil {
			key = d
		}
		groups[key] = append(groups[key], d)
	}

	keys := make([]string, 0, len(groups))
	for k, members := range groups {
		slices.Sort(members)
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, groups
}

func summaryRow(label string, s model.RunSummary) []string {
	return []string{
		label,
		strconv.FormatInt(s.ID, 10),
		formatTime(s.StartedAt),
		modeText(s.Extended, s.Quick),
		strconv.Itoa(s.DomainCount),
	}
}

func modeText(extended, quick bool) string {
	mode := "standard"
	if extended {
		mode = "extended"
	}
	if quick {
		mode += ", quick"
	}
	return mode
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func codeAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = "`" + s + "`"
	}
	return out
}
