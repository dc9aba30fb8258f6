package report

import (
	"html"
	"io"
	"strings"

	"github.com/nao1215/sitesearch/internal/model"
)

// Writer defines the interface for report output.
// Implementations write results in various formats and return the number
// of bytes written.
type Writer interface {
	// WriteSearch outputs one page of results for query.
	WriteSearch(query string, resp *model.SearchResponse) (int, error)

	// WriteStatistics outputs the statistics rollup.
	WriteStatistics(stats *model.Statistics) (int, error)
}

// Format selects a report format.
type Format int

const (
	// FormatText is the human-readable terminal report.
	FormatText Format = iota
	// FormatJSON is the API-compatible JSON report.
	FormatJSON
	// FormatMarkdown is the Markdown report.
	FormatMarkdown
)

// FormatFor returns the format selected by the --json and --markdown flags.
func FormatFor(jsonReport, markdownReport bool) Format {
	switch {
	case jsonReport:
		return FormatJSON
	case markdownReport:
		return FormatMarkdown
	default:
		return FormatText
	}
}

// NewWriter creates the Writer for format.
func NewWriter(output io.Writer, format Format) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewTextWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// snippetText converts a highlighted snippet into plain text, replacing the
// emphasis markup with open and close markers.
func snippetText(snippet, open, closing string) string {
	s := strings.NewReplacer("<b>", open, "</b>", closing).Replace(snippet)
	return html.UnescapeString(s)
}
