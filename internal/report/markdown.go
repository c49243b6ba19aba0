package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/seoscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing, built with nao1215/markdown.
type MarkdownWriter struct {
	baseWriter

	// now stamps the report date. Tests replace it.
	now func() time.Time
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
}

// Write outputs the full site result: the findings summary followed by
// duplicate pages, site keywords and unreachable pages.
func (w *MarkdownWriter) Write(result *model.SiteResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.NewSummary(result, w.now())

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFindings(md, summary)
	w.writeDuplicates(md, result.DuplicatePages)
	w.writeKeywords(md, result.Keywords)
	w.writeErrors(md, result.Errors)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFindings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.Summary) {
	md.H1("SEO Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + s.StartURL + "`"},
			{"Analyzed", s.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
			{"Pages Analyzed", strconv.Itoa(s.PagesAnalyzed)},
			{"Unreachable Pages", strconv.Itoa(s.ErrorCount)},
			{"Duplicate Groups", strconv.Itoa(s.DuplicateGroups)},
			{"Total Time", fmt.Sprintf("%.2fs", s.TotalTime)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🟠 High", strconv.Itoa(s.HighCount)},
			{"🟡 Medium", strconv.Itoa(s.MediumCount)},
			{"🔵 Low", strconv.Itoa(s.LowCount)},
			{"⚪ Info", strconv.Itoa(s.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(s.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if s.HasFindings() {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of the warning categories.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Warnings by Category"),
		piechart.WithShowData(true),
	)

	counts := s.CategoryCounts()
	for _, c := range categoryOrder {
		if n := counts[c]; n > 0 {
			chart.LabelAndIntValue(categoryLabel(c), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *model.Summary) {
	switch {
	case s.PagesAnalyzed == 0:
		md.Cautionf("No page could be analyzed. Check that the start URL is reachable.")
	case s.HighCount > 0:
		md.Warningf(
			"%d high severity warning(s) directly hurt search visibility.",
			s.HighCount,
		)
	case s.MediumCount > 0:
		md.Importantf(
			"%d warning(s) degrade search snippets or link previews.",
			s.MediumCount,
		)
	case s.HasFindings():
		md.Note("Only low severity and informational warnings found.")
	default:
		md.Tip("No SEO warnings found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, s *model.Summary) {
	md.H2("Warnings")
	md.PlainText("")

	if !s.HasFindings() {
		md.PlainText("No warnings.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := s.FindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}
		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	recommendations := make(map[model.WarningCategory]string)
	for i, f := range findings {
		rows[i] = []string{
			truncateString(f.URL, 60),
			truncateString(f.Warning, 80),
		}
		recommendations[f.Category] = f.Recommendation
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Warning"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, c := range categoryOrder {
		if rec, ok := recommendations[c]; ok && rec != "" {
			md.Details(categoryLabel(c), rec)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDuplicates(md *markdown.Markdown, groups [][]string) {
	md.H2("Duplicate Pages")
	md.PlainText("")
	if len(groups) == 0 {
		md.PlainText("No pages share the same content.")
		md.PlainText("")
		return
	}
	for i, group := range groups {
		md.PlainTextf("Group %d", i+1)
		md.PlainText("")
		md.BulletList(group...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeKeywords(md *markdown.Markdown, keywords []model.Keyword) {
	md.H2("Site Keywords")
	md.PlainText("")
	if len(keywords) == 0 {
		md.PlainText("No term occurs often enough to be reported.")
		md.PlainText("")
		return
	}
	rows := make([][]string, len(keywords))
	for i, k := range keywords {
		rows[i] = []string{k.Term, strconv.Itoa(k.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Term", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, errs []string) {
	if len(errs) == 0 {
		return
	}
	md.H2("Unreachable Pages")
	md.PlainText("")
	md.BulletList(errs...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [seoscan](https://github.com/nao1215/seoscan)*")
}

// categoryOrder is the display order of warning categories.
var categoryOrder = []model.WarningCategory{
	model.CategoryTitle,
	model.CategoryHeading,
	model.CategoryDescription,
	model.CategoryOpenGraph,
	model.CategoryKeywords,
	model.CategoryAnchor,
	model.CategoryImage,
	model.CategoryOther,
}

func categoryLabel(c model.WarningCategory) string {
	switch c {
	case model.CategoryTitle:
		return "Title"
	case model.CategoryHeading:
		return "Headings"
	case model.CategoryDescription:
		return "Description"
	case model.CategoryOpenGraph:
		return "Open Graph"
	case model.CategoryKeywords:
		return "Keywords meta"
	case model.CategoryAnchor:
		return "Anchors"
	case model.CategoryImage:
		return "Images"
	default:
		return "Other"
	}
}

// truncateString shortens s to maxLen runes, ending in an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
