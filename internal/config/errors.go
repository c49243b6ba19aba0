package config

import "errors"

// Sentinels returned by Config.Validate and LoadConfigFile. Messages are
// printed to the user as-is.
var (
	// ErrNoTarget is returned when no start URL is specified.
	ErrNoTarget = errors.New("no target specified: provide at least one start URL")

	// ErrInvalidTarget is returned when a start URL is not an absolute http(s) URL.
	ErrInvalidTarget = errors.New("invalid target: start URLs must be absolute http or https URLs")

	// ErrInvalidSitemapURL is returned when the sitemap is not an absolute http(s) URL.
	ErrInvalidSitemapURL = errors.New("invalid sitemap URL: must be an absolute http or https URL")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidConcurrency is returned when fewer than one worker is configured.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidParseWorkers is returned when the parse pool size is negative.
	ErrInvalidParseWorkers = errors.New("invalid parse workers: must be non-negative")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAttempts is returned when fewer than one attempt is configured.
	ErrInvalidAttempts = errors.New("invalid attempts: must be at least 1")

	// ErrInvalidBackoff is returned when the retry backoff is negative.
	ErrInvalidBackoff = errors.New("invalid backoff: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidDeadline is returned when the run deadline is negative.
	ErrInvalidDeadline = errors.New("invalid deadline: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned for --json with --markdown.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Zero selects the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
