package report

import (
	"io"
	"strings"

	"github.com/nao1215/ghsubfinder/internal/model"
)

// TextWriter outputs the discovered domains as plain text, one per line in
// lexicographic order. This is the run's primary deliverable and the format
// other tools consume, so it carries no header or decoration.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs report.Domains, one per line. An empty run writes nothing.
func (w *TextWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder
	for _, d := range report.Domains {
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	return io.WriteString(w.output, sb.String())
}

// WriteDiff outputs added domains prefixed with "+ " followed by removed
// domains prefixed with "- ".
func (w *TextWriter) WriteDiff(diff *model.DomainDiff) (int, error) {
	var sb strings.Builder
	for _, d := range diff.Added {
		sb.WriteString("+ ")
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	for _, d := range diff.Removed {
		sb.WriteString("- ")
		sb.WriteString(d)
		sb.WriteByte('\n')
	}
	return io.WriteString(w.output, sb.String())
}
