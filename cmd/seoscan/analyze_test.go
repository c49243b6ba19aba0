package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/model"
)

const duplicateBody = `<html><head><title>Same page everywhere</title></head><body><p>copy</p></body></html>`

// newTestSite serves a homepage linking to two pages with identical bodies.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/": `<html><head><title>Example homepage</title></head><body>` +
			`<h1>Welcome</h1><a href="/a" title="a">a</a><a href="/b" title="b">b</a></body></html>`,
		"/a": duplicateBody,
		"/b": duplicateBody,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestNewAnalyzeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAnalyzeCmd()
	tests := []struct {
		flag      string
		shorthand string
		defValue  string
	}{
		{flag: "depth", shorthand: "d", defValue: "3"},
		{flag: "timeout", shorthand: "t", defValue: "10s"},
		{flag: "batch", shorthand: "b", defValue: "2"},
		{flag: "json", shorthand: "j", defValue: "false"},
		{flag: "markdown", shorthand: "m", defValue: "false"},
		{flag: "output", shorthand: "o", defValue: ""},
		{flag: "config", shorthand: "c", defValue: ""},
		{flag: "concurrency", defValue: "20"},
		{flag: "attempts", defValue: "3"},
		{flag: "no-follow", defValue: "false"},
		{flag: "archive", defValue: "false"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.flag)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cmd := NewAnalyzeCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.FollowLinks {
			t.Error("expected link following by default")
		}
		if cfg.MaxDepth != config.DefaultMaxDepth {
			t.Errorf("MaxDepth = %d, want %d", cfg.MaxDepth, config.DefaultMaxDepth)
		}
		if cfg.SaveToDB {
			t.Error("expected archiving to be off by default")
		}
		if cfg.DBDir != config.XDGDataDir() {
			t.Errorf("DBDir = %q, want %q", cfg.DBDir, config.XDGDataDir())
		}
		if cfg.SiteConfigs == nil {
			t.Error("expected empty site configs")
		}
	})

	t.Run("flags", func(t *testing.T) {
		t.Parallel()
		cmd := NewAnalyzeCmd()
		err := cmd.ParseFlags([]string{
			"--sitemap", "https://example.com/sitemap.xml",
			"-d", "5",
			"--concurrency", "4",
			"--no-follow",
			"--headings",
			"--extra-tags",
			"-t", "3s",
			"--attempts", "2",
			"--delay", "250ms",
			"--deadline", "1m",
			"-b", "3",
			"-j",
			"-o", "out.json",
			"--archive",
			"--db-dir", "/tmp/seoscan",
			"--metrics-addr", ":9090",
		})
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SitemapURL != "https://example.com/sitemap.xml" {
			t.Errorf("SitemapURL = %q", cfg.SitemapURL)
		}
		if cfg.MaxDepth != 5 || cfg.MaxConcurrency != 4 || cfg.BatchSize != 3 || cfg.MaxAttempts != 2 {
			t.Errorf("unexpected numbers: depth=%d concurrency=%d batch=%d attempts=%d",
				cfg.MaxDepth, cfg.MaxConcurrency, cfg.BatchSize, cfg.MaxAttempts)
		}
		if cfg.FollowLinks {
			t.Error("expected --no-follow to disable link following")
		}
		if !cfg.AnalyzeHeadings || !cfg.AnalyzeExtraTags {
			t.Error("expected analysis options to be enabled")
		}
		if cfg.Timeout != 3*time.Second || cfg.CrawlDelay != 250*time.Millisecond || cfg.Deadline != time.Minute {
			t.Errorf("unexpected durations: timeout=%s delay=%s deadline=%s", cfg.Timeout, cfg.CrawlDelay, cfg.Deadline)
		}
		if !cfg.JSONReport || cfg.ReportFile != "out.json" {
			t.Error("expected JSON report to out.json")
		}
		if !cfg.SaveToDB || cfg.DBDir != "/tmp/seoscan" || cfg.MetricsAddr != ":9090" {
			t.Errorf("unexpected archive settings: save=%t dir=%q metrics=%q", cfg.SaveToDB, cfg.DBDir, cfg.MetricsAddr)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()
		cmd := NewAnalyzeCmd()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.ParseFlags([]string{"-c", missing}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"https://example.com/"})
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("explicit config file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "seoscan.yaml")
		content := "sites:\n  example.com:\n    depth: 7\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		cmd := NewAnalyzeCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if site := cfg.ForSite("https://example.com/"); site.MaxDepth != 7 {
			t.Errorf("site depth = %d, want 7", site.MaxDepth)
		}
	})
}

func TestRunAnalyzeCmdValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "no target", args: []string{"analyze"}, want: config.ErrNoTarget},
		{name: "relative target", args: []string{"analyze", "example.com"}, want: config.ErrInvalidTarget},
		{name: "both formats", args: []string{"analyze", "-j", "-m", "https://example.com/"}, want: config.ErrConflictingReportFormats},
		{name: "negative depth", args: []string{"analyze", "-d", "-1", "https://example.com/"}, want: config.ErrInvalidDepth},
		{name: "unknown log format", args: []string{"analyze", "--log-format", "xml", "https://example.com/"}, want: config.ErrInvalidLogFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want.Error()) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	srv := newTestSite(t)
	dbDir := t.TempDir()

	stdout, stderr, err := execute(t, "analyze",
		"--json", "--archive", "--db-dir", dbDir,
		"--attempts", "1", "--backoff", "0", "-t", "2s",
		srv.URL+"/",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}

	var result model.SiteResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not a JSON result: %v\n%s", err, stdout)
	}
	if len(result.Pages) != 3 {
		t.Errorf("expected 3 pages, got %d", len(result.Pages))
	}
	if len(result.DuplicatePages) != 1 || len(result.DuplicatePages[0]) != 2 {
		t.Errorf("expected one duplicate group of two pages, got %v", result.DuplicatePages)
	}
	if !strings.Contains(stderr, "[1/1]") {
		t.Errorf("expected progress line on stderr, got %q", stderr)
	}

	archive, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()
	history, err := archive.GetRunHistory(context.Background(), srv.URL+"/", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].PageCount != 3 {
		t.Errorf("expected one archived run of 3 pages, got %+v", history)
	}
}

func TestAnalyzeJSONLogs(t *testing.T) {
	srv := newTestSite(t)

	_, stderr, err := execute(t, "analyze", "-v", "--log-format", "json",
		"--attempts", "1", "--backoff", "0", "-t", "2s",
		srv.URL+"/",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}

	var records int
	for _, line := range strings.Split(stderr, "\n") {
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line is not JSON: %v\n%s", err, line)
		}
		if _, ok := rec["msg"]; !ok {
			t.Errorf("log record without msg: %s", line)
		}
		records++
	}
	if records == 0 {
		t.Errorf("expected JSON log records on stderr, got %q", stderr)
	}
}

func TestOutputReports(t *testing.T) {
	t.Parallel()

	results := []*model.SiteResult{
		model.NewSiteResult("https://a.example/"),
		model.NewSiteResult("https://b.example/"),
	}

	t.Run("several JSON results are an array", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.JSONReport = true
		if err := outputReports(cfg, &buf, false, results); err != nil {
			t.Fatal(err)
		}
		var decoded []model.SiteResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("expected JSON array: %v", err)
		}
		if len(decoded) != 2 || decoded[1].StartURL != "https://b.example/" {
			t.Errorf("unexpected results: %+v", decoded)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		if err := outputReports(cfg, &buf, false, results[:1]); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "# SEO Report") {
			t.Errorf("expected markdown heading, got %q", buf.String())
		}
	})

	t.Run("text to private file", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("unix permissions only")
		}
		path := filepath.Join(t.TempDir(), "reports", "seo.txt")
		cfg := config.NewConfig()
		cfg.ReportFile = path
		if err := outputReports(cfg, &bytes.Buffer{}, false, results); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Count(string(data), "SEO REPORT") != 2 {
			t.Errorf("expected two text reports, got %q", data)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})
}
