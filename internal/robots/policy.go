// Package robots loads the robots.txt policy of a crawl origin.
//
// A missing, unreachable or unparseable robots.txt never stops a crawl: the
// loader falls back to a permissive policy that allows everything with no
// crawl delay.
package robots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// DefaultTimeout bounds the robots.txt request.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes limits the size of robots.txt responses we will read.
const maxBodyBytes = 512 * 1024

// Path is the well-known location of robots.txt.
const Path = "/robots.txt"

// Policy answers whether a URL may be fetched by one user agent.
// The zero value and a nil *Policy allow everything.
type Policy struct {
	data      *robotstxt.RobotsData
	userAgent string
}

// Permissive returns a policy that allows every URL with no delay.
func Permissive(userAgent string) *Policy {
	return &Policy{userAgent: userAgent}
}

// Parse builds a policy from robots.txt content.
func Parse(body []byte, userAgent string) (*Policy, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("robots: parse: %w", err)
	}
	return &Policy{data: data, userAgent: userAgent}, nil
}

// Loader fetches robots.txt files.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout sets the robots.txt request timeout.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader using client for requests.
func NewLoader(client *http.Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client:  client,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = http.DefaultClient
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load fetches {scheme}://{host}/robots.txt of originBaseURL.
// Any fetch error, non-2xx status or parse failure yields Permissive.
func (l *Loader) Load(ctx context.Context, originBaseURL, userAgent string) *Policy {
	robotsURL, err := robotsURLFor(originBaseURL)
	if err != nil {
		l.logger.Debug("robots.txt skipped", "base", originBaseURL, "error", err)
		return Permissive(userAgent)
	}

	body, status, err := l.fetch(ctx, robotsURL, userAgent)
	if err != nil {
		l.logger.Debug("robots.txt unavailable, allowing all", "url", robotsURL, "error", err)
		return Permissive(userAgent)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		l.logger.Debug("robots.txt not found, allowing all", "url", robotsURL, "status", status)
		return Permissive(userAgent)
	}

	p, err := Parse(body, userAgent)
	if err != nil {
		l.logger.Warn("robots.txt unparseable, allowing all", "url", robotsURL, "error", err)
		return Permissive(userAgent)
	}

	l.logger.Debug("robots.txt loaded", "url", robotsURL, "crawl_delay", p.CrawlDelay())
	return p
}

func (l *Loader) fetch(ctx context.Context, robotsURL, userAgent string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req) //nolint:gosec // URL derived from the crawl target
	if err != nil {
		return nil, 0, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func robotsURLFor(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("robots: no host in %q", base)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + Path, nil
}

// Allows reports whether rawURL may be fetched. Unparseable URLs are allowed.
func (p *Policy) Allows(rawURL string) bool {
	if p == nil || p.data == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.data.TestAgent(path, p.userAgent)
}

// CrawlDelay returns the delay declared for the agent's group, which falls
// back to the "*" group, or 0.
func (p *Policy) CrawlDelay() time.Duration {
	if p == nil || p.data == nil {
		return 0
	}
	group := p.data.FindGroup(p.userAgent)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

// UserAgent returns the agent the policy evaluates.
func (p *Policy) UserAgent() string {
	if p == nil {
		return ""
	}
	return p.userAgent
}
