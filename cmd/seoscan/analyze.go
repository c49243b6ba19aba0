package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/crawler"
	"github.com/nao1215/seoscan/internal/database"
	applog "github.com/nao1215/seoscan/internal/log"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/pipeline"
	"github.com/nao1215/seoscan/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [start-url...]",
		Short: "Crawl a website and report SEO problems",
		Long: `Analyze crawls each site breadth-first from its start URL and checks every
HTML page for on-page SEO problems.

For each page it reports:
- Missing or badly sized titles and descriptions
- Missing Open Graph tags and discouraged keyword meta tags
- Anchors and images without descriptive attributes
- Pages without an h1 (with --headings)

Across the site it groups pages with identical content and lists the
keywords, bigrams and trigrams used most often.

Examples:
  # Analyze a site
  seoscan analyze https://example.com/

  # Seed the crawl from a sitemap and go deeper
  seoscan analyze --sitemap https://example.com/sitemap.xml -d 5 https://example.com/

  # Only the start page, as JSON
  seoscan analyze --no-follow --json https://example.com/

  # Two sites at once, archived for later comparison
  seoscan analyze --archive https://example.com/ https://example.org/`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Crawl flags
	cmd.Flags().String("sitemap", "",
		"Sitemap URL (XML or plain text) used to seed the crawl")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the start URL")
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrency,
		"Maximum number of in-flight fetches per site")
	cmd.Flags().Int("parse-workers", 0,
		"Number of HTML parse workers (default: number of CPUs)")
	cmd.Flags().Bool("no-follow", false,
		"Do not follow links found on pages")
	cmd.Flags().Duration("delay", 0,
		"Minimum delay between requests (robots.txt Crawl-delay wins if larger)")
	cmd.Flags().Duration("deadline", 0,
		"Maximum duration of a site analysis (0 means none)")

	// Analysis flags
	cmd.Flags().Bool("headings", false,
		"Collect headings and warn about pages without an h1")
	cmd.Flags().Bool("extra-tags", false,
		"Collect Open Graph, Twitter and canonical tags")

	// HTTP flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout of each HTTP attempt")
	cmd.Flags().Int("attempts", config.DefaultMaxAttempts,
		"Maximum attempts per page")
	cmd.Flags().Duration("backoff", config.DefaultBackoff,
		"Base delay between attempts")
	cmd.Flags().Duration("robots-timeout", config.DefaultRobotsTimeout,
		"Timeout of the robots.txt and sitemap fetches")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites analyzed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seoscan in current or config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("pages", false,
		"List every analyzed page in the text report")

	// Archive and metrics
	cmd.Flags().Bool("archive", false,
		"Archive results in the local database")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")
	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address during the run (e.g. :9090)")
	cmd.Flags().String("log-format", config.LogFormatText,
		"Diagnostic log format on stderr: text or json")

	return cmd
}

// newLogger builds the masking logger in the configured format.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return applog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return applog.NewSecureLogger(w, cfg.Verbose)
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing with partial results")
			cancel()
		case <-ctx.Done():
		}
	}()

	showPages, err := cmd.Flags().GetBool("pages")
	if err != nil {
		return err
	}

	return runAnalyze(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), showPages, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.SitemapURL, err = flags.GetString("sitemap"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.ParseWorkers, err = flags.GetInt("parse-workers"); err != nil {
		return nil, err
	}
	noFollow, err := flags.GetBool("no-follow")
	if err != nil {
		return nil, err
	}
	cfg.FollowLinks = !noFollow
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Deadline, err = flags.GetDuration("deadline"); err != nil {
		return nil, err
	}

	if cfg.AnalyzeHeadings, err = flags.GetBool("headings"); err != nil {
		return nil, err
	}
	if cfg.AnalyzeExtraTags, err = flags.GetBool("extra-tags"); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = flags.GetInt("attempts"); err != nil {
		return nil, err
	}
	if cfg.Backoff, err = flags.GetDuration("backoff"); err != nil {
		return nil, err
	}
	if cfg.RobotsTimeout, err = flags.GetDuration("robots-timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}

	if cfg.SaveToDB, err = flags.GetBool("archive"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = dbDirFlag(cmd); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicit path that does
// not exist is an error; a missing default file yields an empty config.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		return cf, nil
	case explicitPath != "":
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	default:
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}
}

// dbDirFlag returns --db-dir, defaulting to the XDG data directory.
func dbDirFlag(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}
	return dir, nil
}

// runAnalyze analyzes every target and writes the reports.
func runAnalyze(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, showPages bool, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"targets", cfg.Targets,
		"depth", cfg.MaxDepth,
		"followLinks", cfg.FollowLinks,
		"batchSize", cfg.BatchSize,
		"archive", cfg.SaveToDB,
	)

	deps := pipeline.Deps{Logger: logger}

	if cfg.SaveToDB {
		archive, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		deps.Archive = archive
		logger.Info("archive opened", "path", archive.Path())
	}

	if cfg.MetricsAddr != "" {
		metrics, stop := serveMetrics(cfg.MetricsAddr, logger)
		defer stop()
		deps.Metrics = metrics
	}

	bp := pipeline.NewBatchProcessor(cfg, pipeline.Factory(cfg, deps),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	results := make([]*model.SiteResult, len(cfg.Targets))
	var mu sync.Mutex
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(run *pipeline.Run, index int) {
		mu.Lock()
		defer mu.Unlock()

		results[index] = run.Result
		status := "done"
		if run.TimedOut {
			status = "partial"
		}
		fmt.Fprintf(stderr, "[%d/%d] %s: %d pages, %d warnings, %d errors (%s)\n",
			index+1, len(cfg.Targets), run.Result.StartURL,
			len(run.Result.Pages), run.Result.WarningCount(), len(run.Result.Errors), status)
		if run.ArchiveID != 0 {
			logger.Info("result archived", "site", run.Result.StartURL, "id", run.ArchiveID)
		}
	})
	if batchErr != nil && !errors.Is(batchErr, context.Canceled) && !errors.Is(batchErr, context.DeadlineExceeded) {
		return batchErr
	}

	fmt.Fprintf(stderr, "Analysis completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	finished := make([]*model.SiteResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			finished = append(finished, r)
		}
	}
	if len(finished) < len(results) {
		fmt.Fprintf(stderr, "Interrupted: %d of %d sites were not analyzed\n", len(results)-len(finished), len(results))
	}

	return outputReports(cfg, stdout, showPages, finished)
}

// serveMetrics exposes the crawler collectors on addr. The returned
// function shuts the server down.
func serveMetrics(addr string, logger *slog.Logger) (*crawler.Metrics, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := crawler.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return metrics, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}
}

// outputReports writes results in the requested format to the report file
// or stdout. Several JSON results are written as one array.
func outputReports(cfg *config.Config, stdout io.Writer, showPages bool, results []*model.SiteResult) error {
	output := stdout
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	if cfg.JSONReport {
		w := report.NewJSONWriter(output, report.WithPrettyPrint())
		if len(results) == 1 {
			_, err := w.Write(results[0])
			return err
		}
		_, err := w.WriteAll(results)
		return err
	}

	var w report.Writer
	if cfg.MarkdownReport {
		w = report.NewMarkdownWriter(output)
	} else {
		w = report.NewSimpleWriter(output, report.WithVerbose(showPages))
	}
	for _, r := range results {
		if _, err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// createReportFile creates path with owner-only permissions, creating
// parent directories as needed.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
