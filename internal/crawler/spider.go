package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/parser"
	"github.com/nao1215/seoscan/internal/robots"
	"github.com/nao1215/seoscan/internal/urlutil"
)

// Defaults for a Spider.
const (
	DefaultMaxDepth       = 3
	DefaultMaxConcurrency = 20
)

// Spider crawls one site breadth-first with a fixed number of workers.
// A Spider holds configuration only; every Crawl call gets its own state,
// so a Spider may run several crawls at once.
type Spider struct {
	// fetcher performs page requests with retries.
	fetcher *fetch.Fetcher

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxConcurrency is both the number of workers and the number of
	// requests allowed in flight.
	maxConcurrency int

	// parseWorkers bounds concurrent page parsing.
	parseWorkers int

	// delay is a minimum per-origin delay between requests. The robots.txt
	// crawl delay wins when it is longer.
	delay time.Duration

	// robotsTimeout bounds the robots.txt request.
	robotsTimeout time.Duration

	parseOptions parser.Options

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	followPatterns []string

	metrics *Metrics
	logger  *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxConcurrency sets the number of workers and in-flight requests.
func WithMaxConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		s.maxConcurrency = n
	}
}

// WithParseWorkers bounds concurrent page parsing. Values below 1 keep
// the default of runtime.NumCPU().
func WithParseWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.parseWorkers = n
		}
	}
}

// WithDelay sets a minimum delay between requests to the same origin.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithRobotsTimeout sets the robots.txt request timeout.
func WithRobotsTimeout(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.robotsTimeout = d
	}
}

// WithParseOptions sets the page analysis options.
func WithParseOptions(opts parser.Options) SpiderOption {
	return func(s *Spider) {
		s.parseOptions = opts
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithMetrics sets the Prometheus collectors to update.
func WithMetrics(m *Metrics) SpiderOption {
	return func(s *Spider) {
		s.metrics = m
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches pages with fetcher.
func NewSpider(fetcher *fetch.Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:        fetcher,
		maxDepth:       DefaultMaxDepth,
		maxConcurrency: DefaultMaxConcurrency,
		parseWorkers:   runtime.NumCPU(),
		robotsTimeout:  robots.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		s.fetcher = fetch.NewFetcher(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Result is the outcome of one crawl.
type Result struct {
	// Pages holds every successfully parsed page in completion order.
	Pages []*model.PageRecord

	Metrics model.CrawlMetrics

	// Failures lists the pages that could not be fetched. They are absent
	// from Pages.
	Failures []error
}

// Crawl fetches homepageURL and, optionally, every URL listed by
// sitemapURL, then follows same-origin links breadth-first up to the
// maximum depth. It returns when no work is queued and no worker is busy.
//
// Per-page failures never abort the crawl. An error is returned only for
// invalid arguments, before any network activity, or when ctx ends; in
// the latter case the pages collected so far are returned as well.
func (s *Spider) Crawl(ctx context.Context, homepageURL, sitemapURL string) (*Result, error) {
	if err := s.validate(homepageURL); err != nil {
		return nil, err
	}

	userAgent := s.fetcher.UserAgent()
	policy := robots.NewLoader(s.fetcher.Client(),
		robots.WithTimeout(s.robotsTimeout),
		robots.WithLogger(s.logger),
	).Load(ctx, homepageURL, userAgent)

	delay := max(policy.CrawlDelay(), s.delay)
	st := newCrawlState(homepageURL, policy, delay)

	queue := newFrontier()
	queue.push(model.WorkItem{Depth: 0, URL: homepageURL})

	if sitemapURL != "" {
		seeds, err := s.sitemapSeeds(ctx, sitemapURL)
		if err != nil {
			s.logger.Warn("sitemap unavailable, crawling from homepage only",
				"sitemap", sitemapURL, "error", err)
		}
		for _, seed := range seeds {
			seed = urlutil.StripFragment(seed)
			if !urlutil.IsHTTP(seed) || !urlutil.SameOrigin(homepageURL, seed) {
				continue
			}
			queue.push(model.WorkItem{Depth: 0, URL: seed})
			st.count(func(m *model.CrawlMetrics) { m.SitemapSeeds++ })
		}
	}

	s.logger.Debug("crawl started",
		"homepage", homepageURL,
		"seeds", queue.len(),
		"max_depth", s.maxDepth,
		"workers", s.maxConcurrency,
		"crawl_delay", delay,
	)

	stop := context.AfterFunc(ctx, queue.close)
	defer stop()

	fetchSem := semaphore.NewWeighted(int64(s.maxConcurrency))
	parseSem := semaphore.NewWeighted(int64(s.parseWorkers))

	g, gctx := errgroup.WithContext(ctx)
	for range s.maxConcurrency {
		g.Go(func() error {
			for {
				item, ok := queue.pop()
				if !ok {
					return nil
				}
				s.process(gctx, st, queue, fetchSem, parseSem, item)
				queue.done()
			}
		})
	}
	_ = g.Wait()

	pages, metrics := st.snapshot()
	result := &Result{
		Pages:    pages,
		Metrics:  metrics,
		Failures: st.failures.Unwrap(),
	}

	s.logger.Debug("crawl finished",
		"homepage", homepageURL,
		"pages", metrics.Pages,
		"failed", metrics.Failed,
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Spider) validate(homepageURL string) error {
	if s.maxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, s.maxDepth)
	}
	if s.maxConcurrency < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, s.maxConcurrency)
	}
	u, err := url.Parse(homepageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, homepageURL)
	}
	return nil
}

// process takes one work item through
// Queued -> Fetching -> {Parsed, Failed, SkippedDuplicate, SkippedByRobots}.
func (s *Spider) process(ctx context.Context, st *crawlState, queue *frontier,
	fetchSem, parseSem *semaphore.Weighted, item model.WorkItem) {
	if ctx.Err() != nil {
		return
	}

	if !st.markIfNotVisited(item.URL) {
		st.count(func(m *model.CrawlMetrics) { m.SkippedDuplicate++ })
		s.metrics.observe(outcomeDuplicate)
		return
	}
	if !st.policy.Allows(item.URL) {
		st.count(func(m *model.CrawlMetrics) { m.SkippedByRobots++ })
		s.metrics.observe(outcomeRobots)
		s.logger.Debug("disallowed by robots.txt", "url", item.URL)
		return
	}

	if err := st.waitTurn(ctx, item.URL); err != nil {
		return
	}
	if err := fetchSem.Acquire(ctx, 1); err != nil {
		return
	}
	start := time.Now()
	s.metrics.fetchStarted()
	resp, err := s.fetcher.Get(ctx, item.URL)
	s.metrics.fetchFinished(start)
	fetchSem.Release(1)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		st.count(func(m *model.CrawlMetrics) { m.Failed++ })
		st.failures.Append(fmt.Errorf("%s: %w", item.URL, err))
		s.metrics.observe(outcomeFailed)
		s.logger.Debug("fetch failed", "url", item.URL, "error", err)
		return
	}
	st.count(func(m *model.CrawlMetrics) { m.Fetched++ })

	if resp.URL != "" && resp.URL != item.URL {
		if !urlutil.SameOrigin(st.homepage, resp.URL) {
			st.count(func(m *model.CrawlMetrics) { m.SkippedFiltered++ })
			s.metrics.observe(outcomeFiltered)
			s.logger.Debug("redirected off origin", "url", item.URL, "location", resp.URL)
			return
		}
		// A redirect target is the same document; do not fetch it again.
		st.markIfNotVisited(resp.URL)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		st.count(func(m *model.CrawlMetrics) { m.SkippedFiltered++ })
		s.metrics.observe(outcomeFiltered)
		s.logger.Debug("not an HTML page", "url", item.URL, "content_type", contentType)
		return
	}

	if err := parseSem.Acquire(ctx, 1); err != nil {
		return
	}
	opts := s.parseOptions
	opts.ContentType = contentType
	page := parser.Parse(item.URL, resp.Body, opts)
	parseSem.Release(1)

	st.addPage(page)
	s.metrics.observe(outcomeParsed)
	s.logger.Debug("page parsed",
		"url", item.URL,
		"depth", item.Depth,
		"links", len(page.Links),
		"warnings", len(page.Warnings),
	)

	if item.Depth >= s.maxDepth {
		return
	}
	s.expand(st, queue, item, page.Links)
}

// expand enqueues the unvisited, allowed same-origin links of a page one
// level deeper.
func (s *Spider) expand(st *crawlState, queue *frontier, item model.WorkItem, links []string) {
	for _, link := range links {
		if !urlutil.SameOrigin(st.homepage, link) || st.isVisited(link) {
			continue
		}
		if !st.policy.Allows(link) {
			st.count(func(m *model.CrawlMetrics) { m.SkippedByRobots++ })
			s.metrics.observe(outcomeRobots)
			continue
		}
		if !s.shouldCrawl(link) {
			st.count(func(m *model.CrawlMetrics) { m.SkippedFiltered++ })
			s.metrics.observe(outcomeFiltered)
			continue
		}
		queue.push(model.WorkItem{Depth: item.Depth + 1, URL: link})
	}
}

// isHTML reports whether a Content-Type denotes an HTML document. A missing
// header is given the benefit of the doubt.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// shouldCrawl checks if a URL should be crawled based on ignore/follow patterns.
//
// Logic:
//  1. If URL matches any ignorePattern, skip it (return false)
//  2. If followPatterns is set and URL matches none, skip it (return false)
//  3. Otherwise, crawl it (return true)
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
