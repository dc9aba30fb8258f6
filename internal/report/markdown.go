package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitesearch/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteSearch outputs the results as a table with one snippet per row.
func (w *MarkdownWriter) WriteSearch(query string, resp *model.SearchResponse) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Search Results")
	md.PlainText("")
	md.PlainTextf("Query: `%s`, %s matching %s.", query, humanize.Comma(int64(resp.Count)), plural(resp.Count, "page", "pages"))
	md.PlainText("")

	if len(resp.Data) == 0 {
		md.Note("No page contains every word of the query.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(resp.Data))
	for i, r := range resp.Data {
		title := r.Title
		if title == "" {
			title = r.URI
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("[%s](%s%s)", flattenCell(title), r.Site, r.URI),
			flattenCell(r.SiteName),
			strconv.FormatFloat(r.Relevance, 'f', 3, 64),
			flattenCell(snippetText(r.Snippet, "**", "**")),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Page", "Site", "Relevance", "Snippet"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

// WriteStatistics outputs totals, a per-site table and a page distribution chart.
func (w *MarkdownWriter) WriteStatistics(stats *model.Statistics) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Index Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sites", humanize.Comma(int64(stats.Total.Sites))},
			{"Pages", humanize.Comma(int64(stats.Total.Pages))},
			{"Lemmas", humanize.Comma(int64(stats.Total.Lemmas))},
			{"Indexing", strconv.FormatBool(stats.Total.Indexing)},
		},
	})
	md.PlainText("")

	if stats.Total.Indexing {
		md.Important("Indexing is in progress; counts are still changing.")
		md.PlainText("")
	}

	md.H2("Sites")
	md.PlainText("")

	rows := make([][]string, len(stats.Detailed))
	failed := 0
	for i, d := range stats.Detailed {
		updated := "-"
		if !d.StatusTime.IsZero() {
			updated = d.StatusTime.Format("2006-01-02 15:04:05 MST")
		}
		errText := "-"
		if d.Error != "" {
			errText = flattenCell(d.Error)
		}
		if d.Status == model.StatusFailed {
			failed++
		}
		rows[i] = []string{
			flattenCell(d.Name),
			d.URL,
			d.Status.String(),
			updated,
			humanize.Comma(int64(d.Pages)),
			humanize.Comma(int64(d.Lemmas)),
			errText,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "URL", "Status", "Updated", "Pages", "Lemmas", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	if failed > 0 {
		md.Warningf("%d site(s) failed; searches across all sites are rejected until they are indexed.", failed)
		md.PlainText("")
	}

	if stats.Total.Pages > 0 {
		w.writePieChart(md, stats)
	}

	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of pages per site.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *model.Statistics) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages per Site"),
		piechart.WithShowData(true),
	)

	for _, d := range stats.Detailed {
		if d.Pages > 0 {
			chart.LabelAndIntValue(d.Name, uint64(d.Pages))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// flattenCell keeps a multi-line value on one table row.
func flattenCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
