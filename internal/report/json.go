package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/seoscan/internal/model"
)

// JSONWriter emits site results for tool integration. The object written
// by Write is the site result itself: start_url, pages, duplicate_pages,
// keywords, errors and total_time.
//
// HTML escaping is off so URLs keep their literal '&' and '<'.
type JSONWriter struct {
	baseWriter
	prefix, indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output using the given line prefix and
// per-level indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter returns a compact JSONWriter unless an option says otherwise.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write emits one site result.
func (w *JSONWriter) Write(result *model.SiteResult) (int, error) {
	return w.encode(result)
}

// WriteSummary emits the findings summary.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.encode(summary)
}

// WriteAll emits several site results as one array, in input order.
// A nil slice is written as [].
func (w *JSONWriter) WriteAll(results []*model.SiteResult) (int, error) {
	if results == nil {
		results = []*model.SiteResult{}
	}
	return w.encode(results)
}

// encode buffers the document so a marshal error never leaves partial
// output behind. json.Encoder appends the trailing newline.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
