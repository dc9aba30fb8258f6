package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitesearch/internal/model"
)

// JSONWriter outputs reports in the same JSON shape the HTTP API returns,
// so scripts can consume either source.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteSearch outputs {"result": true, "count": ..., "data": [...]}.
func (w *JSONWriter) WriteSearch(_ string, resp *model.SearchResponse) (int, error) {
	return w.writeJSON(model.SearchEnvelope{Result: true, SearchResponse: resp})
}

// WriteStatistics outputs {"result": true, "statistics": {...}}.
func (w *JSONWriter) WriteStatistics(stats *model.Statistics) (int, error) {
	return w.writeJSON(model.StatisticsEnvelope{Result: true, Statistics: stats})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
