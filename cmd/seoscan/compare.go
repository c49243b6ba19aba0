package main

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/model"
)

// Directions of the overall change between two runs.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <start-url>",
		Short: "Compare two archived runs of a site",
		Long: `Compare shows what changed between two archived runs of a site:
- Pages that appeared, disappeared or whose content changed
- Warnings that are new or were fixed
- The change in warning counts per severity
- Duplicate page groups that are new

By default the latest run is compared with the one before it. Runs are
archived with 'seoscan analyze --archive'.

Examples:
  # Compare the latest two runs
  seoscan compare https://example.com/

  # Compare the latest run with run 5
  seoscan compare --with-run-id 5 https://example.com/

  # Compare with the first run since a date
  seoscan compare --since 2026-01-01 https://example.com/

  # As JSON
  seoscan compare --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with this run (see 'seoscan history')")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run on or after this date (YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")

	cmd.MarkFlagsMutuallyExclusive("with-run-id", "since")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	withRunID, err := flags.GetInt64("with-run-id")
	if err != nil {
		return err
	}
	since, err := flags.GetString("since")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := dbDirFlag(cmd)
	if err != nil {
		return err
	}

	archive, err := openExistingArchive(dbDir)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := cmd.Context()
	site := args[0]

	previous, current, err := selectRuns(ctx, archive, site, withRunID, since)
	if err != nil {
		return err
	}

	comparison, err := compareRuns(ctx, archive, previous, current)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, comparison)
	case markdownOutput:
		return outputComparisonMarkdown(out, comparison)
	default:
		outputComparisonText(out, comparison)
		return nil
	}
}

// selectRuns returns the older and the newer run to compare.
func selectRuns(ctx context.Context, archive *database.Archive, site string, withRunID int64, since string) (*database.Run, *database.Run, error) {
	history, err := archive.GetRunHistory(ctx, site, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("no archived runs for %s", site)
	}

	var previousID int64
	switch {
	case withRunID > 0:
		previousID = withRunID
	case since != "":
		day, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// history is newest first; walk it backwards for the oldest match.
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].StartedAt.Before(day) {
				previousID = history[i].ID
				break
			}
		}
		if previousID == 0 {
			return nil, nil, fmt.Errorf("no runs found since %s", since)
		}
	default:
		if len(history) < 2 {
			return nil, nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(history))
		}
		previousID = history[1].ID
	}

	if previousID == history[0].ID {
		return nil, nil, fmt.Errorf("run %d is the latest run; nothing to compare it with", previousID)
	}

	current, err := archive.GetRunByID(ctx, history[0].ID)
	if err != nil {
		return nil, nil, err
	}
	previous, err := archive.GetRunByID(ctx, previousID)
	if err != nil {
		return nil, nil, err
	}
	if previous == nil {
		return nil, nil, fmt.Errorf("run %d not found", previousID)
	}
	if previous.Site != site {
		return nil, nil, fmt.Errorf("run %d belongs to %s, not %s", previousID, previous.Site, site)
	}
	return previous, current, nil
}

// ComparisonResult holds the differences between two runs of a site.
type ComparisonResult struct {
	Site     string      `json:"site"`
	Previous RunSnapshot `json:"previous_run"`
	Current  RunSnapshot `json:"current_run"`

	PagesAdded   []string `json:"pages_added,omitempty"`
	PagesRemoved []string `json:"pages_removed,omitempty"`

	// PagesChanged lists pages present in both runs whose content hash
	// differs.
	PagesChanged []string `json:"pages_changed,omitempty"`

	NewFindings      []model.Finding `json:"new_findings,omitempty"`
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`
	UnchangedCount   int             `json:"unchanged_count"`

	NewDuplicateGroups [][]string `json:"new_duplicate_groups,omitempty"`

	Change SeverityChange `json:"change"`
}

// RunSnapshot holds the counts of one run.
type RunSnapshot struct {
	ID            int64     `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	Pages         int       `json:"pages"`
	Errors        int       `json:"errors"`
	TotalFindings int       `json:"total_findings"`
	HighCount     int       `json:"high_count"`
	MediumCount   int       `json:"medium_count"`
	LowCount      int       `json:"low_count"`
	InfoCount     int       `json:"info_count"`
}

// SeverityChange is the per-severity difference current minus previous.
type SeverityChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction   string `json:"direction"`
	HighDelta   int    `json:"high_delta"`
	MediumDelta int    `json:"medium_delta"`
	LowDelta    int    `json:"low_delta"`
	InfoDelta   int    `json:"info_delta"`
}

func compareRuns(ctx context.Context, archive *database.Archive, previous, current *database.Run) (*ComparisonResult, error) {
	prevPages, err := archive.GetPages(ctx, previous.ID)
	if err != nil {
		return nil, err
	}
	currPages, err := archive.GetPages(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	result := diffPages(prevPages, currPages)
	result.Site = current.Site

	prevSummary := model.NewSummary(previous.Result, previous.StartedAt)
	currSummary := model.NewSummary(current.Result, current.StartedAt)
	result.Previous = snapshot(previous.ID, prevSummary)
	result.Current = snapshot(current.ID, currSummary)

	diffFindings(result, prevSummary.Findings, currSummary.Findings)
	result.NewDuplicateGroups = newDuplicateGroups(previous.Result.DuplicatePages, current.Result.DuplicatePages)
	result.Change = severityChange(result.Previous, result.Current)

	return result, nil
}

// diffPages compares the page rows of two runs. Both inputs are sorted by
// URL, so the output lists are too.
func diffPages(previous, current []database.PageSummary) *ComparisonResult {
	result := &ComparisonResult{}

	prevHash := make(map[string]string, len(previous))
	for _, p := range previous {
		prevHash[p.URL] = p.ContentHash
	}
	seen := make(map[string]bool, len(current))

	for _, p := range current {
		seen[p.URL] = true
		hash, ok := prevHash[p.URL]
		switch {
		case !ok:
			result.PagesAdded = append(result.PagesAdded, p.URL)
		case hash != p.ContentHash:
			result.PagesChanged = append(result.PagesChanged, p.URL)
		}
	}
	for _, p := range previous {
		if !seen[p.URL] {
			result.PagesRemoved = append(result.PagesRemoved, p.URL)
		}
	}
	return result
}

func snapshot(id int64, s *model.Summary) RunSnapshot {
	return RunSnapshot{
		ID:            id,
		StartedAt:     s.DateAnalyzed,
		Pages:         s.PagesAnalyzed,
		Errors:        s.ErrorCount,
		TotalFindings: s.TotalFindings(),
		HighCount:     s.HighCount,
		MediumCount:   s.MediumCount,
		LowCount:      s.LowCount,
		InfoCount:     s.InfoCount,
	}
}

// findingKey identifies a warning of a page across runs.
func findingKey(f model.Finding) string {
	return f.URL + "|" + f.Warning
}

func diffFindings(result *ComparisonResult, previous, current []model.Finding) {
	prev := make(map[string]bool, len(previous))
	for _, f := range previous {
		prev[findingKey(f)] = true
	}
	curr := make(map[string]bool, len(current))
	for _, f := range current {
		curr[findingKey(f)] = true
	}

	for _, f := range current {
		if !prev[findingKey(f)] {
			result.NewFindings = append(result.NewFindings, f)
		} else {
			result.UnchangedCount++
		}
	}
	for _, f := range previous {
		if !curr[findingKey(f)] {
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		}
	}

	sortFindings(result.NewFindings)
	sortFindings(result.ResolvedFindings)
}

// sortFindings orders findings by severity, most severe first, then URL.
func sortFindings(findings []model.Finding) {
	slices.SortStableFunc(findings, func(a, b model.Finding) int {
		if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
}

// newDuplicateGroups returns the groups of current that did not exist in
// previous. Groups are compared as sets of URLs.
func newDuplicateGroups(previous, current [][]string) [][]string {
	groupKey := func(g []string) string {
		sorted := slices.Clone(g)
		slices.Sort(sorted)
		return strings.Join(sorted, "\n")
	}
	known := make(map[string]bool, len(previous))
	for _, g := range previous {
		known[groupKey(g)] = true
	}

	var added [][]string
	for _, g := range current {
		if !known[groupKey(g)] {
			added = append(added, g)
		}
	}
	return added
}

func severityChange(previous, current RunSnapshot) SeverityChange {
	change := SeverityChange{
		HighDelta:   current.HighCount - previous.HighCount,
		MediumDelta: current.MediumCount - previous.MediumCount,
		LowDelta:    current.LowCount - previous.LowCount,
		InfoDelta:   current.InfoCount - previous.InfoCount,
	}

	// Weighted so a fixed high warning outweighs several new low ones.
	score := func(s RunSnapshot) int {
		return s.HighCount*50 + s.MediumCount*10 + s.LowCount*5 + s.InfoCount
	}
	switch prev, curr := score(previous), score(current); {
	case curr < prev:
		change.Direction = directionImproved
	case curr > prev:
		change.Direction = directionWorsened
	default:
		change.Direction = directionUnchanged
	}
	return change
}

func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1(fmt.Sprintf("Run Comparison: %s", result.Site))
	md.PlainText("")
	md.PlainTextf("**Status:** %s", formatDirection(result.Change.Direction))
	md.PlainText("")

	p, c := result.Previous, result.Current
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run", strconv.FormatInt(p.ID, 10), strconv.FormatInt(c.ID, 10), "-"},
			{"Date", p.StartedAt.Local().Format("2006-01-02 15:04"), c.StartedAt.Local().Format("2006-01-02 15:04"), "-"},
			{"Pages", strconv.Itoa(p.Pages), strconv.Itoa(c.Pages), formatDelta(c.Pages - p.Pages)},
			{"Errors", strconv.Itoa(p.Errors), strconv.Itoa(c.Errors), formatDelta(c.Errors - p.Errors)},
			{"High", strconv.Itoa(p.HighCount), strconv.Itoa(c.HighCount), formatDelta(result.Change.HighDelta)},
			{"Medium", strconv.Itoa(p.MediumCount), strconv.Itoa(c.MediumCount), formatDelta(result.Change.MediumDelta)},
			{"Low", strconv.Itoa(p.LowCount), strconv.Itoa(c.LowCount), formatDelta(result.Change.LowDelta)},
			{"Info", strconv.Itoa(p.InfoCount), strconv.Itoa(c.InfoCount), formatDelta(result.Change.InfoDelta)},
			{"**Total**", strconv.Itoa(p.TotalFindings), strconv.Itoa(c.TotalFindings), formatDelta(c.TotalFindings - p.TotalFindings)},
		},
	})
	md.PlainText("")

	writeURLList := func(title string, urls []string) {
		if len(urls) == 0 {
			return
		}
		md.H2(fmt.Sprintf("%s (%d)", title, len(urls)))
		md.PlainText("")
		md.BulletList(urls...)
		md.PlainText("")
	}
	writeURLList("Pages Added", result.PagesAdded)
	writeURLList("Pages Removed", result.PagesRemoved)
	writeURLList("Pages Changed", result.PagesChanged)

	if len(result.NewFindings) > 0 {
		md.H2(fmt.Sprintf("New Warnings (%d)", len(result.NewFindings)))
		md.PlainText("")
		md.Table(findingsTable(result.NewFindings))
		md.PlainText("")
	}
	if len(result.ResolvedFindings) > 0 {
		md.H2(fmt.Sprintf("Resolved Warnings (%d)", len(result.ResolvedFindings)))
		md.PlainText("")
		md.Table(findingsTable(result.ResolvedFindings))
		md.PlainText("")
	}

	for i, g := range result.NewDuplicateGroups {
		if i == 0 {
			md.H2(fmt.Sprintf("New Duplicate Groups (%d)", len(result.NewDuplicateGroups)))
			md.PlainText("")
		}
		md.BulletList(g...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d warnings unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

func findingsTable(findings []model.Finding) markdown.TableSet {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{f.SeverityText, "`" + f.URL + "`", f.Warning}
	}
	return markdown.TableSet{
		Header: []string{"Severity", "Page", "Warning"},
		Rows:   rows,
	}
}

func outputComparisonText(out io.Writer, result *ComparisonResult) {
	p, c := result.Previous, result.Current

	fmt.Fprintf(out, "Run Comparison: %s\n", result.Site)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(result.Change.Direction))
	fmt.Fprintf(out, "\nPrevious run: #%d  %s\n", p.ID, p.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current run:  #%d  %s\n", c.ID, c.StartedAt.Local().Format("2006-01-02 15:04:05"))

	row := func(label string, prev, curr, delta int) {
		fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", label, prev, curr, formatDelta(delta))
	}
	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	row("Pages", p.Pages, c.Pages, c.Pages-p.Pages)
	row("Errors", p.Errors, c.Errors, c.Errors-p.Errors)
	row("High", p.HighCount, c.HighCount, result.Change.HighDelta)
	row("Medium", p.MediumCount, c.MediumCount, result.Change.MediumDelta)
	row("Low", p.LowCount, c.LowCount, result.Change.LowDelta)
	row("Info", p.InfoCount, c.InfoCount, result.Change.InfoDelta)
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	row("Total", p.TotalFindings, c.TotalFindings, c.TotalFindings-p.TotalFindings)

	urlList := func(title, marker string, urls []string) {
		if len(urls) == 0 {
			return
		}
		fmt.Fprintf(out, "\n%s (%d):\n", title, len(urls))
		for _, u := range urls {
			fmt.Fprintf(out, "  [%s] %s\n", marker, u)
		}
	}
	urlList("Pages Added", "+", result.PagesAdded)
	urlList("Pages Removed", "-", result.PagesRemoved)
	urlList("Pages Changed", "~", result.PagesChanged)

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(out, "\nNew Warnings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(out, "  [+] [%s] %s\n      %s\n", f.SeverityText, f.Warning, f.URL)
		}
	}
	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(out, "\nResolved Warnings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(out, "  [-] [%s] %s\n      %s\n", f.SeverityText, f.Warning, f.URL)
		}
	}

	if len(result.NewDuplicateGroups) > 0 {
		fmt.Fprintf(out, "\nNew Duplicate Groups (%d):\n", len(result.NewDuplicateGroups))
		for i, g := range result.NewDuplicateGroups {
			fmt.Fprintf(out, "  Group %d: %s\n", i+1, strings.Join(g, ", "))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d warnings\n", result.UnchangedCount)
	}
}

func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (fewer or less severe warnings)"
	case directionWorsened:
		return "WORSENED (more or more severe warnings)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
