package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/seoscan/internal/aggregate"
	"github.com/nao1215/seoscan/internal/crawler"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/parser"
)

// FetchSettings are the request settings shared by every site of a run.
// The site's user agent and headers are applied on top.
type FetchSettings struct {
	Client      *http.Client
	Policy      fetch.Policy
	MaxBodySize int64
}

func (fs FetchSettings) fetcherFor(run *Run, logger *slog.Logger) *fetch.Fetcher {
	policy := fs.Policy
	policy.Logger = logger
	return fetch.NewFetcher(fs.Client,
		fetch.WithUserAgent(run.Site.UserAgent),
		fetch.WithHeaders(run.Site.Headers),
		fetch.WithMaxBodySize(fs.MaxBodySize),
		fetch.WithPolicy(policy),
		fetch.WithLogger(logger),
	)
}

func parseOptionsFor(run *Run) parser.Options {
	return parser.Options{
		AnalyzeHeadings:  run.Site.AnalyzeHeadings,
		AnalyzeExtraTags: run.Site.AnalyzeExtraTags,
	}
}

// CrawlStep crawls the site from its start URL and optional sitemap.
type CrawlStep struct {
	fetch FetchSettings

	// delay is the minimum per-origin spacing between requests.
	delay time.Duration

	robotsTimeout time.Duration
	parseWorkers  int
	metrics       *crawler.Metrics
	logger        *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlDelay sets the minimum delay between requests to one origin.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlRobotsTimeout bounds the robots.txt request.
func WithCrawlRobotsTimeout(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.robotsTimeout = d
	}
}

// WithCrawlParseWorkers bounds concurrent parsing. 0 keeps the default.
func WithCrawlParseWorkers(n int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.parseWorkers = n
	}
}

// WithCrawlMetrics records crawl outcomes in m.
func WithCrawlMetrics(m *crawler.Metrics) CrawlStepOption {
	return func(s *CrawlStep) {
		s.metrics = m
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step.
func NewCrawlStep(fs FetchSettings, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		fetch:  fs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls run.Site. A cancelled crawl keeps its partial pages and
// marks the run as timed out; only invalid crawl settings are errors.
func (s *CrawlStep) Do(ctx context.Context, run *Run) error {
	spiderOpts := []crawler.SpiderOption{
		crawler.WithMaxDepth(run.Site.MaxDepth),
		crawler.WithMaxConcurrency(run.Site.MaxConcurrency),
		crawler.WithDelay(s.delay),
		crawler.WithParseOptions(parseOptionsFor(run)),
		crawler.WithMetrics(s.metrics),
		crawler.WithLogger(s.logger),
	}
	if s.robotsTimeout > 0 {
		spiderOpts = append(spiderOpts, crawler.WithRobotsTimeout(s.robotsTimeout))
	}
	if s.parseWorkers > 0 {
		spiderOpts = append(spiderOpts, crawler.WithParseWorkers(s.parseWorkers))
	}
	if len(run.Site.IgnorePatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithIgnorePatterns(run.Site.IgnorePatterns))
	}
	if len(run.Site.FollowPatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithFollowPatterns(run.Site.FollowPatterns))
	}

	spider := crawler.NewSpider(s.fetch.fetcherFor(run, s.logger), spiderOpts...)
	res, err := spider.Crawl(ctx, run.Site.StartURL, run.Site.SitemapURL)
	if res != nil {
		run.Pages = res.Pages
		run.Failures = res.Failures
		metrics := res.Metrics
		run.Metrics = &metrics
	}
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Warn("crawl interrupted, keeping partial results",
				"site", run.Site.StartURL,
				"pages", len(run.Pages),
				"reason", err,
			)
			run.TimedOut = true
			return nil
		}
		return fmt.Errorf("crawl %s: %w", run.Site.StartURL, err)
	}

	s.logger.Info("crawl completed",
		"site", run.Site.StartURL,
		"pages", run.Metrics.Pages,
		"failed", run.Metrics.Failed,
	)
	return nil
}

// SinglePageStep analyzes only the start URL. It skips robots.txt and
// sitemap handling.
type SinglePageStep struct {
	fetch  FetchSettings
	logger *slog.Logger
}

// NewSinglePageStep creates a single page step.
func NewSinglePageStep(fs FetchSettings, logger *slog.Logger) *SinglePageStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SinglePageStep{fetch: fs, logger: logger}
}

// Name returns the step name.
func (s *SinglePageStep) Name() string {
	return "single_page"
}

// Do fetches and parses run.Site.StartURL.
func (s *SinglePageStep) Do(ctx context.Context, run *Run) error {
	resp, err := s.fetch.fetcherFor(run, s.logger).Get(ctx, run.Site.StartURL)
	if err != nil {
		if ctx.Err() != nil {
			run.TimedOut = true
			return nil
		}
		run.Failures = append(run.Failures, fmt.Errorf("%s: %w", run.Site.StartURL, err))
		s.logger.Warn("page unreachable", "url", run.Site.StartURL, "error", err)
		return nil
	}

	opts := parseOptionsFor(run)
	opts.ContentType = resp.Header.Get("Content-Type")
	run.Pages = append(run.Pages, parser.Parse(run.Site.StartURL, resp.Body, opts))
	return nil
}

// AggregateStep builds the site result from the collected pages. It runs
// even after a cancellation so callers always receive a result.
type AggregateStep struct{}

// NewAggregateStep creates an aggregate step.
func NewAggregateStep() *AggregateStep {
	return &AggregateStep{}
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return "aggregate"
}

// RunsAfterCancel reports that aggregation is never skipped.
func (s *AggregateStep) RunsAfterCancel() bool {
	return true
}

// Do sets run.Result.
func (s *AggregateStep) Do(_ context.Context, run *Run) error {
	result := aggregate.Aggregate(run.Site.StartURL, run.Pages, run.Started)
	for _, err := range run.Failures {
		result.Errors = append(result.Errors, err.Error())
	}
	result.CrawlMetrics = run.Metrics
	run.Result = result
	return nil
}

// ArchiveStep stores the finished result in the sqlite archive.
type ArchiveStep struct {
	archive *database.Archive
	logger  *slog.Logger
}

// NewArchiveStep creates an archive step writing to a.
func NewArchiveStep(a *database.Archive, logger *slog.Logger) *ArchiveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveStep{archive: a, logger: logger}
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do saves run.Result. Runs that did not finish are not archived.
func (s *ArchiveStep) Do(ctx context.Context, run *Run) error {
	if run.Result == nil {
		return errors.New("archive: run has no result")
	}
	if run.TimedOut {
		s.logger.Warn("run interrupted, not archived", "site", run.Site.StartURL)
		return nil
	}
	id, err := s.archive.SaveRun(ctx, run.Result, run.Started)
	if err != nil {
		return fmt.Errorf("archive %s: %w", run.Site.StartURL, err)
	}
	run.ArchiveID = id
	s.logger.Debug("run archived", "site", run.Site.StartURL, "run_id", id)
	return nil
}
