package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

func fixedTime() time.Time {
	return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

// createTestResult creates a result with sample data for testing.
func createTestResult() *model.SiteResult {
	res := model.NewSiteResult("https://example.com/")
	res.Pages = []*model.PageRecord{
		{
			URL:         "https://example.com/",
			Title:       "Example home page",
			WordCount:   120,
			TopKeywords: []model.Keyword{{Term: "gopher", Count: 7}},
			Warnings: []string{
				model.WarnMissingDescription,
				model.Warnf(model.WarnImageNoAlt, "/logo.png"),
			},
			ContentHash: "abc",
			Links:       []string{"https://example.com/about"},
		},
		{
			URL:         "https://example.com/about",
			Title:       "About",
			Warnings:    []string{model.Warnf(model.WarnTitleTooShort, "About")},
			ContentHash: "abc",
			Links:       []string{},
		},
	}
	res.DuplicatePages = [][]string{{"https://example.com/", "https://example.com/about"}}
	res.Keywords = []model.Keyword{{Term: "gopher", Count: 9}, {Term: "go gopher", Count: 5}}
	res.Errors = []string{"https://example.com/broken: too many retries"}
	res.TotalTime = 2.5
	return res
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, res *model.SiteResult, opts ...SimpleWriterOption) string {
		t.Helper()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, opts...)
		w.now = fixedTime
		n, err := w.Write(res)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}
		return buf.String()
	}

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()
		out := write(t, createTestResult())
		for _, want := range []string{"SEO REPORT", "https://example.com/", "Pages Analyzed:    2", "TOTAL:    3 warnings"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes warnings, duplicates, keywords and errors", func(t *testing.T) {
		t.Parallel()
		out := write(t, createTestResult())
		for _, want := range []string{
			"Missing description",
			"Image missing alt tag: /logo.png",
			"DUPLICATE PAGES",
			"go gopher",
			"[x] https://example.com/broken",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("verbose mode includes pages and recommendations", func(t *testing.T) {
		t.Parallel()
		out := write(t, createTestResult(), WithVerbose(true))
		if !strings.Contains(out, "PAGES") || !strings.Contains(out, "gopher (7)") {
			t.Error("expected page details in verbose output")
		}
		if !strings.Contains(out, "Fix:") {
			t.Error("expected recommendations in verbose output")
		}
	})

	t.Run("empty sections hidden by default", func(t *testing.T) {
		t.Parallel()
		out := write(t, model.NewSiteResult("https://example.com/"))
		if strings.Contains(out, "DUPLICATE PAGES") {
			t.Error("expected no duplicate section")
		}
		out = write(t, model.NewSiteResult("https://example.com/"), WithShowEmpty(true))
		if !strings.Contains(out, "No duplicates") {
			t.Error("expected empty duplicate section with WithShowEmpty")
		}
	})

	t.Run("WriteSummary", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.WriteSummary(model.NewSummary(createTestResult(), fixedTime())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "WARNING SUMMARY") {
			t.Error("expected summary section")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs the site result shape", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed map[string]json.RawMessage
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		for _, key := range []string{"start_url", "pages", "duplicate_pages", "keywords", "errors", "total_time"} {
			if _, ok := parsed[key]; !ok {
				t.Errorf("expected key %q", key)
			}
		}
	})

	t.Run("empty result has empty arrays", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(model.NewSiteResult("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{`"pages":[]`, `"duplicate_pages":[]`, `"keywords":[]`, `"errors":[]`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in %s", want, out)
			}
		}
	})

	t.Run("compact by default and pretty on request", func(t *testing.T) {
		t.Parallel()

		var compact, pretty bytes.Buffer
		_, _ = NewJSONWriter(&compact).Write(createTestResult())
		_, _ = NewJSONWriter(&pretty, WithPrettyPrint()).Write(createTestResult())

		if strings.Count(compact.String(), "\n") != 1 {
			t.Error("expected compact output on one line")
		}
		if !strings.Contains(pretty.String(), "\n  \"start_url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("URLs are not HTML escaped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(model.NewSiteResult("https://example.com/?a=1&b=2")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "?a=1&b=2") {
			t.Errorf("expected literal ampersand in %s", buf.String())
		}
	})

	t.Run("WriteAll writes an array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		results := []*model.SiteResult{createTestResult(), model.NewSiteResult("https://other.example/")}
		if _, err := NewJSONWriter(&buf).WriteAll(results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var parsed []model.SiteResult
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not a JSON array: %v", err)
		}
		if len(parsed) != 2 || parsed[1].StartURL != "https://other.example/" {
			t.Errorf("unexpected array %+v", parsed)
		}
	})

	t.Run("WriteSummary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteSummary(model.NewSummary(createTestResult(), fixedTime())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var parsed model.Summary
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if parsed.TotalFindings() != 3 {
			t.Errorf("expected 3 findings, got %d", parsed.TotalFindings())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes all sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		w.now = fixedTime
		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# SEO Report",
			"## Severity Summary",
			"```mermaid",
			"## Warnings",
			"## Duplicate Pages",
			"## Site Keywords",
			"## Unreachable Pages",
			"2026-05-01 12:00:00 UTC",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(model.NewSiteResult("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "No warnings.") {
			t.Error("expected no-warnings text")
		}
		if strings.Contains(out, "## Unreachable Pages") {
			t.Error("unexpected errors section")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 2, "ab"},
		{"日本語のテキストです", 5, "日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
