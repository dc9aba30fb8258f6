package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/sitesearch/internal/model"
)

const ruleWidth = 70

// TextWriter outputs human-readable reports for terminal display.
// Matched words of a snippet are shown in [brackets].
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// WriteSearch outputs one page of results.
func (w *TextWriter) WriteSearch(query string, resp *model.SearchResponse) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	fmt.Fprintf(&sb, "Search: %s\n", query)
	fmt.Fprintf(&sb, "Found %s %s\n", humanize.Comma(int64(resp.Count)), plural(resp.Count, "page", "pages"))
	writeRule(&sb, "=")

	if len(resp.Data) == 0 {
		sb.WriteString("\n  No results\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString("\n")
	for i, r := range resp.Data {
		title := r.Title
		if title == "" {
			title = r.URI
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
		fmt.Fprintf(&sb, "   %s%s  (%s, relevance %.3f)\n", r.Site, r.URI, r.SiteName, r.Relevance)
		fmt.Fprintf(&sb, "   %s\n\n", snippetText(r.Snippet, "[", "]"))
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteStatistics outputs the totals followed by one block per site.
func (w *TextWriter) WriteStatistics(stats *model.Statistics) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("INDEX STATISTICS\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Sites:    %s\n", humanize.Comma(int64(stats.Total.Sites)))
	fmt.Fprintf(&sb, "Pages:    %s\n", humanize.Comma(int64(stats.Total.Pages)))
	fmt.Fprintf(&sb, "Lemmas:   %s\n", humanize.Comma(int64(stats.Total.Lemmas)))
	if stats.Total.Indexing {
		sb.WriteString("Indexing: in progress\n")
	} else {
		sb.WriteString("Indexing: idle\n")
	}
	sb.WriteString("\n")

	for _, d := range stats.Detailed {
		writeRule(&sb, "-")
		fmt.Fprintf(&sb, "%s (%s)\n", d.Name, d.URL)
		writeRule(&sb, "-")
		fmt.Fprintf(&sb, "  Status:  %s", d.Status)
		if !d.StatusTime.IsZero() {
			fmt.Fprintf(&sb, " (%s)", humanize.Time(d.StatusTime))
		}
		sb.WriteString("\n")
		if d.Error != "" {
			fmt.Fprintf(&sb, "  Error:   %s\n", d.Error)
		}
		fmt.Fprintf(&sb, "  Pages:   %s\n", humanize.Comma(int64(d.Pages)))
		fmt.Fprintf(&sb, "  Lemmas:  %s\n\n", humanize.Comma(int64(d.Lemmas)))
	}

	return w.output.Write([]byte(sb.String()))
}

func writeRule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, ruleWidth))
	sb.WriteString("\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
