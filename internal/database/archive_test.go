package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

// setupTestArchive creates a temporary archive for testing.
func setupTestArchive(t *testing.T) *Archive {
	t.Helper()

	a, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sampleResult(site string, urls ...string) *model.SiteResult {
	res := model.NewSiteResult(site)
	for i, u := range urls {
		res.Pages = append(res.Pages, &model.PageRecord{
			URL:         u,
			Title:       "Page " + u,
			WordCount:   10 * (i + 1),
			ContentHash: "hash-" + u,
			Warnings:    []string{"Missing title tag"},
			Links:       []string{},
		})
	}
	res.TotalTime = 1.5
	return res
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates archive in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		a, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open archive: %v", err)
		}
		defer a.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("archive file was not created")
		}
		if a.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", a.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing archive", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
		if !errors.Is(err, ErrArchiveNotFound) {
			t.Errorf("expected ErrArchiveNotFound, got %v", err)
		}
	})

	t.Run("CreateIfNotExists=false opens existing archive", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create archive: %v", err)
		}
		_ = a.Close()

		a, err = Open(dir, Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen archive: %v", err)
		}
		_ = a.Close()
	})
}

func TestSaveRunRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupTestArchive(t)

	res := sampleResult("https://example.com/", "https://example.com/", "https://example.com/about")
	res.DuplicatePages = [][]string{{"https://example.com/", "https://example.com/about"}}
	res.Errors = []string{"https://example.com/missing: 404"}

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := a.SaveRun(ctx, res, started)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	run, err := a.GetRunByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRunByID failed: %v", err)
	}
	if run == nil {
		t.Fatal("expected run")
	}

	if run.Site != "https://example.com/" {
		t.Errorf("unexpected site %q", run.Site)
	}
	if !run.StartedAt.Equal(started) {
		t.Errorf("expected started %v, got %v", started, run.StartedAt)
	}
	if run.PageCount != 2 || run.WarningCount != 2 || run.ErrorCount != 1 || run.DuplicateGroups != 1 {
		t.Errorf("unexpected summary: %+v", run.RunMeta)
	}
	if len(run.Result.Pages) != 2 || run.Result.Pages[1].URL != "https://example.com/about" {
		t.Errorf("unexpected decoded pages: %+v", run.Result.Pages)
	}

	pages, err := a.GetPages(ctx, id)
	if err != nil {
		t.Fatalf("GetPages failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 page rows, got %d", len(pages))
	}
	if pages[0].URL != "https://example.com/" || pages[0].ContentHash != "hash-https://example.com/" {
		t.Errorf("unexpected first page row: %+v", pages[0])
	}
	if pages[1].WordCount != 20 || pages[1].WarningCount != 1 {
		t.Errorf("unexpected second page row: %+v", pages[1])
	}
}

func TestGetRunByIDUnknown(t *testing.T) {
	t.Parallel()

	a := setupTestArchive(t)
	run, err := a.GetRunByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil run, got %+v", run)
	}
}

func TestHistoryAndLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupTestArchive(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		urls := []string{"https://a.example/"}
		if i > 0 {
			urls = append(urls, "https://a.example/new")
		}
		if _, err := a.SaveRun(ctx, sampleResult("https://a.example/", urls...), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}
	if _, err := a.SaveRun(ctx, sampleResult("https://b.example/", "https://b.example/"), base); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	t.Run("history is newest first", func(t *testing.T) {
		t.Parallel()
		history, err := a.GetRunHistory(ctx, "https://a.example/", 0)
		if err != nil {
			t.Fatalf("GetRunHistory failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(history))
		}
		if !history[0].StartedAt.After(history[1].StartedAt) {
			t.Errorf("history not ordered newest first: %v, %v", history[0].StartedAt, history[1].StartedAt)
		}
	})

	t.Run("history honors limit", func(t *testing.T) {
		t.Parallel()
		history, err := a.GetRunHistory(ctx, "https://a.example/", 1)
		if err != nil {
			t.Fatalf("GetRunHistory failed: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("expected 1 run, got %d", len(history))
		}
	})

	t.Run("latest runs carry results", func(t *testing.T) {
		t.Parallel()
		runs, err := a.GetLatestRuns(ctx, "https://a.example/", 2)
		if err != nil {
			t.Fatalf("GetLatestRuns failed: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if len(runs[0].Result.Pages) != 2 {
			t.Errorf("expected newest run to have 2 pages, got %d", len(runs[0].Result.Pages))
		}
	})

	t.Run("sites are listed once", func(t *testing.T) {
		t.Parallel()
		sites, err := a.ListSites(ctx)
		if err != nil {
			t.Fatalf("ListSites failed: %v", err)
		}
		if len(sites) != 2 || sites[0] != "https://a.example/" || sites[1] != "https://b.example/" {
			t.Errorf("unexpected sites %v", sites)
		}
	})

	t.Run("unknown site has no history", func(t *testing.T) {
		t.Parallel()
		history, err := a.GetRunHistory(ctx, "https://c.example/", 0)
		if err != nil {
			t.Fatalf("GetRunHistory failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d", len(history))
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-01-02T03:04:05Z", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2026-01-02 03:04:05", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"not a time", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
