package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultMaxDepth limits link expansion to three levels below the
	// start page, which covers the navigable part of most small sites.
	DefaultMaxDepth = 3

	// DefaultMaxConcurrency is the number of crawl workers and the number
	// of requests allowed in flight.
	DefaultMaxConcurrency = 20

	// DefaultTimeout bounds each HTTP attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxAttempts is the number of attempts per page before it is
	// dropped from the results.
	DefaultMaxAttempts = 3

	// DefaultBackoff is the fixed pause between two attempts.
	DefaultBackoff = 1500 * time.Millisecond

	// DefaultRobotsTimeout bounds the robots.txt request.
	DefaultRobotsTimeout = 10 * time.Second

	// DefaultBatchSize is the number of sites analyzed concurrently when
	// several start URLs are given.
	DefaultBatchSize = 2

	// LogFormatText and LogFormatJSON are the accepted LogFormat values.
	LogFormatText = "text"
	LogFormatJSON = "json"

	// AppName is the application name used for XDG directory paths.
	AppName = "seoscan"

	// DefaultUserAgent identifies seoscan in HTTP requests and selects its
	// group in robots.txt.
	DefaultUserAgent = "seoscan/1.0 (+https://github.com/nao1215/seoscan)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for seoscan.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// A single flat struct keeps flag binding simple; per-site overrides live
// in SiteConfigs and are merged by ForSite.
type Config struct {
	// Targets is the list of start URLs to analyze.
	Targets []string

	// SitemapURL optionally seeds the crawl with every URL of a sitemap.
	// It applies to every target of the run.
	SitemapURL string

	// FollowLinks selects a crawl over a single-page analysis. When false
	// and no sitemap is given only the start URL is analyzed; with a
	// sitemap the crawl still expands links up to MaxDepth.
	FollowLinks bool

	// MaxDepth is the maximum link depth below the start URL.
	// Depth 0 means only fetch the initial page.
	MaxDepth int

	// MaxConcurrency is the number of crawl workers per site.
	MaxConcurrency int

	// ParseWorkers bounds concurrent page parsing. 0 means one per CPU.
	ParseWorkers int

	// AnalyzeHeadings collects h1..h6 text for every page.
	AnalyzeHeadings bool

	// AnalyzeExtraTags collects viewport, charset, canonical, alternate
	// and Open Graph values for every page.
	AnalyzeExtraTags bool

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxAttempts is the number of attempts per page.
	MaxAttempts int

	// Backoff is the fixed pause between attempts.
	Backoff time.Duration

	// RobotsTimeout bounds the robots.txt request.
	RobotsTimeout time.Duration

	// CrawlDelay is a minimum delay between requests to one site. A longer
	// Crawl-delay in robots.txt takes precedence.
	CrawlDelay time.Duration

	// Deadline bounds a whole site analysis. Zero means no deadline; the
	// crawl then ends only when its queue drains.
	Deadline time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// BatchSize is the number of sites analyzed concurrently.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile picks one.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for the SQLite report archive.
	// Defaults to XDG data directory (~/.local/share/seoscan on Linux).
	DBDir string

	// SaveToDB archives every result after the run. Crawls never read the
	// archive.
	SaveToDB bool

	// MetricsAddr, when set, serves Prometheus metrics on this address
	// while the run is in progress.
	MetricsAddr string

	// LogFormat selects text or JSON diagnostics on stderr.
	LogFormat string
}

// NewConfig creates a new Config with default values.
// Many defaults are non-zero, so a constructor documents them better than
// relying on zero values.
func NewConfig() *Config {
	return &Config{
		FollowLinks:    true,
		MaxDepth:       DefaultMaxDepth,
		MaxConcurrency: DefaultMaxConcurrency,
		Timeout:        DefaultTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		Backoff:        DefaultBackoff,
		RobotsTimeout:  DefaultRobotsTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		BatchSize:      DefaultBatchSize,
		LogFormat:      LogFormatText,
	}
}

// XDGDataDir returns the XDG data directory for seoscan.
// On Linux: ~/.local/share/seoscan
// On macOS: ~/Library/Application Support/seoscan
// On Windows: %LOCALAPPDATA%\seoscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for seoscan.
// On Linux: ~/.config/seoscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package sentinel errors,
// before any network activity happens.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, t := range c.Targets {
		if !isAbsoluteHTTP(t) {
			return ErrInvalidTarget
		}
	}
	if c.SitemapURL != "" && !isAbsoluteHTTP(c.SitemapURL) {
		return ErrInvalidSitemapURL
	}

	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.ParseWorkers < 0 {
		return ErrInvalidParseWorkers
	}

	if c.Timeout <= 0 || c.RobotsTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.Backoff < 0 {
		return ErrInvalidBackoff
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.Deadline < 0 {
		return ErrInvalidDeadline
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	return nil
}

// isAbsoluteHTTP reports whether raw is an http(s) URL with a host.
func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
