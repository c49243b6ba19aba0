package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
// Plain ASCII keeps the output pipeable into files and other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections without entries are shown.
	showEmpty bool

	// verbose adds recommendations and per-page details.
	verbose bool

	now func() time.Time
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full result in human-readable format.
func (w *SimpleWriter) Write(result *model.SiteResult) (int, error) {
	var sb strings.Builder
	summary := model.NewSummary(result, w.now())

	w.writeHeader(&sb, summary)
	w.writeSeverities(&sb, summary)
	if w.verbose {
		w.writePages(&sb, result.Pages)
	}
	w.writeFindings(&sb, summary)
	w.writeDuplicates(&sb, result.DuplicatePages)
	w.writeKeywords(&sb, result.Keywords)
	w.writeErrors(&sb, result.Errors)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSeverities(&sb, summary)
	w.writeFindings(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                           SEO REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:         %s\n", s.StartURL)
	fmt.Fprintf(sb, "Analyzed:          %s\n", s.DateAnalyzed.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages Analyzed:    %d\n", s.PagesAnalyzed)
	fmt.Fprintf(sb, "Unreachable Pages: %d\n", s.ErrorCount)
	fmt.Fprintf(sb, "Total Time:        %.2fs\n", s.TotalTime)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSeverities(sb *strings.Builder, s *model.Summary) {
	section(sb, "WARNING SUMMARY")

	fmt.Fprintf(sb, "  HIGH:     %d\n", s.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", s.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", s.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n", s.InfoCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d warnings\n", s.TotalFindings())
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, pages []*model.PageRecord) {
	if len(pages) == 0 && !w.showEmpty {
		return
	}
	section(sb, "PAGES")

	if len(pages) == 0 {
		sb.WriteString("  No pages analyzed\n\n")
		return
	}
	for _, p := range pages {
		if p == nil {
			continue
		}
		fmt.Fprintf(sb, "  %s\n", p.URL)
		fmt.Fprintf(sb, "    Title: %s\n", p.Title)
		fmt.Fprintf(sb, "    Words: %d  Links: %d  Warnings: %d\n", p.WordCount, len(p.Links), len(p.Warnings))
		if len(p.TopKeywords) > 0 {
			terms := make([]string, len(p.TopKeywords))
			for i, k := range p.TopKeywords {
				terms[i] = fmt.Sprintf("%s (%d)", k.Term, k.Count)
			}
			fmt.Fprintf(sb, "    Keywords: %s\n", strings.Join(terms, ", "))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, s *model.Summary) {
	if !s.HasFindings() && !w.showEmpty {
		return
	}
	section(sb, "WARNINGS")

	severities := []model.Severity{
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := s.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())

	if len(findings) == 0 {
		sb.WriteString("  No warnings\n\n")
		return
	}

	for _, f := range findings {
		fmt.Fprintf(sb, "  * %s\n", f.Warning)
		fmt.Fprintf(sb, "    Page: %s\n", f.URL)
		if w.verbose && f.Recommendation != "" {
			fmt.Fprintf(sb, "    Fix: %s\n", f.Recommendation)
		}
	}
	sb.WriteString("\n")
}

func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeDuplicates(sb *strings.Builder, groups [][]string) {
	if len(groups) == 0 && !w.showEmpty {
		return
	}
	section(sb, "DUPLICATE PAGES")
	if len(groups) == 0 {
		sb.WriteString("  No duplicates\n\n")
		return
	}
	for i, group := range groups {
		fmt.Fprintf(sb, "  Group %d:\n", i+1)
		for _, u := range group {
			fmt.Fprintf(sb, "    %s\n", u)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeKeywords(sb *strings.Builder, keywords []model.Keyword) {
	if len(keywords) == 0 && !w.showEmpty {
		return
	}
	section(sb, "SITE KEYWORDS")
	if len(keywords) == 0 {
		sb.WriteString("  No keywords\n\n")
		return
	}
	for _, k := range keywords {
		fmt.Fprintf(sb, "  %-40s %d\n", k.Term, k.Count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeErrors(sb *strings.Builder, errs []string) {
	if len(errs) == 0 && !w.showEmpty {
		return
	}
	section(sb, "UNREACHABLE PAGES")
	if len(errs) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, e := range errs {
		fmt.Fprintf(sb, "  [x] %s\n", e)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by seoscan\n")
	sb.WriteString("https://github.com/nao1215/seoscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
