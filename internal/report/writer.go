package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/ghsubfinder/internal/model"
)

// ErrOutputWrite is wrapped by every failure to produce the output file.
// The run's findings exist only in memory, so such a failure is fatal.
var ErrOutputWrite = errors.New("cannot write output")

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer defines the interface for report output.
// Implementations write run results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the run report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)

	// WriteDiff outputs a comparison of two stored runs.
	WriteDiff(diff *model.DomainDiff) (int, error)
}

// Format is an output format name.
type Format string

const (
	// FormatText is one domain per line, sorted. It is the default.
	FormatText Format = "text"

	// FormatJSON is the full run report as JSON.
	FormatJSON Format = "json"

	// FormatMarkdown is a human-readable Markdown report.
	FormatMarkdown Format = "markdown"
)

// ParseFormat converts a user-supplied name into a Format.
// Matching is case-insensitive; "txt" and "md" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q (expected text, json or markdown)", ErrUnknownFormat, name)
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// DefaultPath returns the output path used when none is given: the target
// domain followed by the format's extension, in the working directory.
func DefaultPath(target string, format Format) string {
	return target + format.Extension()
}

// NewWriter returns the Writer for format. version is embedded in formats
// that carry metadata.
func NewWriter(format Format, output io.Writer, version string) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(version)), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile writes report to path in format, creating parent directories
// as needed and replacing any existing file. Every failure wraps
// ErrOutputWrite.
func WriteFile(path string, format Format, version string, report *model.RunReport) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrOutputWrite, cerr)
		}
	}()

	w, err := NewWriter(format, f, version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if _, err := w.Write(report); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	return nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
