package crawler

import "errors"

var (
	// ErrInvalidDepth is returned when the maximum depth is negative.
	ErrInvalidDepth = errors.New("max depth must not be negative")

	// ErrInvalidConcurrency is returned when fewer than one worker is configured.
	ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")

	// ErrInvalidURL is returned when the homepage is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("homepage must be an absolute http or https URL")

	// ErrUnknownSitemap is returned when a sitemap is neither XML nor text.
	ErrUnknownSitemap = errors.New("unrecognized sitemap format")
)
