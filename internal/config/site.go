package config

import (
	"maps"
	"net/url"
	"strings"
)

// SiteConfig holds site-specific configuration for a single host.
// Pointer fields distinguish "not set" from an explicit zero, so a site
// can lower the depth to 0 or switch an analysis off.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Depth overrides the global crawl depth for this site.
	Depth *int `yaml:"depth,omitempty"`

	// Concurrency overrides the global worker count for this site.
	Concurrency *int `yaml:"concurrency,omitempty"`

	// Sitemap seeds the crawl of this site.
	Sitemap string `yaml:"sitemap,omitempty"`

	// FollowLinks overrides link following for this site.
	FollowLinks *bool `yaml:"followLinks,omitempty"`

	// AnalyzeHeadings overrides heading collection for this site.
	AnalyzeHeadings *bool `yaml:"analyzeHeadings,omitempty"`

	// AnalyzeExtraTags overrides extra tag collection for this site.
	AnalyzeExtraTags *bool `yaml:"analyzeExtraTags,omitempty"`

	// IgnorePatterns are URL patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .seoscan configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are host names without scheme or port (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		result.Headers = maps.Clone(result.Headers)
	}

	site, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Sitemap != "" {
		result.Sitemap = site.Sitemap
	}
	if site.Depth != nil {
		result.Depth = site.Depth
	}
	if site.Concurrency != nil {
		result.Concurrency = site.Concurrency
	}
	if site.FollowLinks != nil {
		result.FollowLinks = site.FollowLinks
	}
	if site.AnalyzeHeadings != nil {
		result.AnalyzeHeadings = site.AnalyzeHeadings
	}
	if site.AnalyzeExtraTags != nil {
		result.AnalyzeExtraTags = site.AnalyzeExtraTags
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}

	return result
}

// Site is the effective configuration of one crawl: the global settings
// with the matching site entry applied on top.
type Site struct {
	StartURL         string
	SitemapURL       string
	MaxDepth         int
	MaxConcurrency   int
	FollowLinks      bool
	AnalyzeHeadings  bool
	AnalyzeExtraTags bool
	UserAgent        string
	Headers          map[string]string
	IgnorePatterns   []string
	FollowPatterns   []string
}

// ForSite resolves the effective settings for startURL.
func (c *Config) ForSite(startURL string) Site {
	s := Site{
		StartURL:         startURL,
		SitemapURL:       c.SitemapURL,
		MaxDepth:         c.MaxDepth,
		MaxConcurrency:   c.MaxConcurrency,
		FollowLinks:      c.FollowLinks,
		AnalyzeHeadings:  c.AnalyzeHeadings,
		AnalyzeExtraTags: c.AnalyzeExtraTags,
		UserAgent:        c.UserAgent,
	}
	if c.SiteConfigs == nil {
		return s
	}

	host := ""
	if u, err := url.Parse(startURL); err == nil {
		host = u.Hostname()
	}
	sc := c.SiteConfigs.GetSiteConfig(host)

	if sc.Sitemap != "" {
		s.SitemapURL = sc.Sitemap
	}
	if sc.UserAgent != "" {
		s.UserAgent = sc.UserAgent
	}
	if sc.Depth != nil {
		s.MaxDepth = *sc.Depth
	}
	if sc.Concurrency != nil {
		s.MaxConcurrency = *sc.Concurrency
	}
	if sc.FollowLinks != nil {
		s.FollowLinks = *sc.FollowLinks
	}
	if sc.AnalyzeHeadings != nil {
		s.AnalyzeHeadings = *sc.AnalyzeHeadings
	}
	if sc.AnalyzeExtraTags != nil {
		s.AnalyzeExtraTags = *sc.AnalyzeExtraTags
	}
	s.Headers = sc.Headers
	if sc.Cookie != "" {
		if s.Headers == nil {
			s.Headers = make(map[string]string)
		}
		s.Headers["Cookie"] = sc.Cookie
	}
	s.IgnorePatterns = sc.IgnorePatterns
	s.FollowPatterns = sc.FollowPatterns
	return s
}
