package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/model"
)

const exampleSite = "https://example.com/"

func pageWith(url, hash string, warnings ...string) *model.PageRecord {
	return &model.PageRecord{URL: url, ContentHash: hash, Warnings: warnings}
}

// twoRuns returns an older and a newer result of the same site. Between
// them /old disappears, /new appears, /about changes, the missing title
// on / is fixed and a missing description appears on /about.
func twoRuns() (*model.SiteResult, *model.SiteResult) {
	previous := siteResult(exampleSite,
		pageWith(exampleSite, "h1", model.WarnMissingTitle),
		pageWith(exampleSite+"about", "h2", model.WarnMissingOGImage),
		pageWith(exampleSite+"old", "h3"),
	)
	current := siteResult(exampleSite,
		pageWith(exampleSite, "h1"),
		pageWith(exampleSite+"about", "h2b", model.WarnMissingOGImage, model.WarnMissingDescription),
		pageWith(exampleSite+"new", "h4"),
		pageWith(exampleSite+"new-copy", "h4"),
	)
	current.DuplicatePages = [][]string{{exampleSite + "new", exampleSite + "new-copy"}}
	return previous, current
}

func TestDiffPages(t *testing.T) {
	t.Parallel()

	previous := []database.PageSummary{
		{URL: "https://x/a", ContentHash: "1"},
		{URL: "https://x/b", ContentHash: "2"},
		{URL: "https://x/c", ContentHash: "3"},
	}
	current := []database.PageSummary{
		{URL: "https://x/a", ContentHash: "1"},
		{URL: "https://x/b", ContentHash: "changed"},
		{URL: "https://x/d", ContentHash: "4"},
	}

	got := diffPages(previous, current)
	if strings.Join(got.PagesAdded, ",") != "https://x/d" {
		t.Errorf("PagesAdded = %v", got.PagesAdded)
	}
	if strings.Join(got.PagesRemoved, ",") != "https://x/c" {
		t.Errorf("PagesRemoved = %v", got.PagesRemoved)
	}
	if strings.Join(got.PagesChanged, ",") != "https://x/b" {
		t.Errorf("PagesChanged = %v", got.PagesChanged)
	}
}

func TestNewDuplicateGroups(t *testing.T) {
	t.Parallel()

	previous := [][]string{{"a", "b"}}
	current := [][]string{{"b", "a"}, {"c", "d"}}

	got := newDuplicateGroups(previous, current)
	if len(got) != 1 || strings.Join(got[0], ",") != "c,d" {
		t.Errorf("expected only the c,d group, got %v", got)
	}
}

func TestSeverityChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous RunSnapshot
		current  RunSnapshot
		want     string
	}{
		{
			name:     "fixed high outweighs new lows",
			previous: RunSnapshot{HighCount: 1},
			current:  RunSnapshot{LowCount: 3},
			want:     directionImproved,
		},
		{
			name:     "new medium",
			previous: RunSnapshot{},
			current:  RunSnapshot{MediumCount: 1},
			want:     directionWorsened,
		},
		{
			name:     "same counts",
			previous: RunSnapshot{LowCount: 2},
			current:  RunSnapshot{LowCount: 2},
			want:     directionUnchanged,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := severityChange(tt.previous, tt.current)
			if got.Direction != tt.want {
				t.Errorf("Direction = %q, want %q", got.Direction, tt.want)
			}
		})
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := map[int]string{3: "+3", 0: "0", -2: "-2"}
	for in, want := range tests {
		if got := formatDelta(in); got != want {
			t.Errorf("formatDelta(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCompareCmd(t *testing.T) {
	t.Parallel()

	previous, current := twoRuns()
	dir := seedArchive(t, previous, current)

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, "compare", "--db-dir", dir, "--json", exampleSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got ComparisonResult
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if got.Previous.ID != 1 || got.Current.ID != 2 {
			t.Errorf("compared runs %d and %d, want 1 and 2", got.Previous.ID, got.Current.ID)
		}
		if strings.Join(got.PagesAdded, ",") != exampleSite+"new,"+exampleSite+"new-copy" {
			t.Errorf("PagesAdded = %v", got.PagesAdded)
		}
		if strings.Join(got.PagesRemoved, ",") != exampleSite+"old" {
			t.Errorf("PagesRemoved = %v", got.PagesRemoved)
		}
		if strings.Join(got.PagesChanged, ",") != exampleSite+"about" {
			t.Errorf("PagesChanged = %v", got.PagesChanged)
		}
		if len(got.NewFindings) != 1 || got.NewFindings[0].Warning != model.WarnMissingDescription {
			t.Errorf("NewFindings = %+v", got.NewFindings)
		}
		if len(got.ResolvedFindings) != 1 || got.ResolvedFindings[0].Warning != model.WarnMissingTitle {
			t.Errorf("ResolvedFindings = %+v", got.ResolvedFindings)
		}
		if got.UnchangedCount != 1 {
			t.Errorf("UnchangedCount = %d, want 1", got.UnchangedCount)
		}
		if len(got.NewDuplicateGroups) != 1 {
			t.Errorf("NewDuplicateGroups = %v", got.NewDuplicateGroups)
		}
		if got.Change.Direction != directionImproved || got.Change.HighDelta != -1 || got.Change.MediumDelta != 1 {
			t.Errorf("Change = %+v", got.Change)
		}
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, "compare", "--db-dir", dir, exampleSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Run Comparison: " + exampleSite, "IMPROVED", "Pages Removed (1)", "[-] [HIGH] Missing title tag"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, "compare", "--db-dir", dir, "--markdown", exampleSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# Run Comparison: " + exampleSite, "## New Warnings (1)", "Severity", model.WarnMissingDescription} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("with run id", func(t *testing.T) {
		t.Parallel()
		out, _, err := execute(t, "compare", "--db-dir", dir, "--json", "-i", "1", exampleSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"pages_removed"`) {
			t.Errorf("expected a comparison, got %s", out)
		}
	})
}

func TestCompareCmdErrors(t *testing.T) {
	t.Parallel()

	previous, current := twoRuns()
	dir := seedArchive(t, previous, current, siteResult("https://other.example/"))
	single := seedArchive(t, siteResult(exampleSite))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing archive", args: []string{"compare", "--db-dir", t.TempDir(), exampleSite}, want: "archive not found"},
		{name: "unknown site", args: []string{"compare", "--db-dir", dir, "https://none.example/"}, want: "no archived runs"},
		{name: "single run", args: []string{"compare", "--db-dir", single, exampleSite}, want: "at least 2 runs"},
		{name: "unknown run id", args: []string{"compare", "--db-dir", dir, "-i", "99", exampleSite}, want: "run 99 not found"},
		{name: "run of another site", args: []string{"compare", "--db-dir", dir, "-i", "3", exampleSite}, want: "belongs to"},
		{name: "latest run id", args: []string{"compare", "--db-dir", dir, "-i", "2", exampleSite}, want: "latest run"},
		{name: "bad date", args: []string{"compare", "--db-dir", dir, "-s", "March", exampleSite}, want: "invalid date"},
		{name: "future date", args: []string{"compare", "--db-dir", dir, "-s", "2099-01-01", exampleSite}, want: "no runs found since"},
		{name: "no site", args: []string{"compare", "--db-dir", dir}, want: "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOutputComparisonMarkdownNoChanges(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	result := &ComparisonResult{Site: exampleSite, Change: SeverityChange{Direction: directionUnchanged}}
	if err := outputComparisonMarkdown(&buf, result); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "UNCHANGED") {
		t.Errorf("expected unchanged status, got %q", out)
	}
	if strings.Contains(out, "New Warnings") {
		t.Errorf("expected no findings section, got %q", out)
	}
}
