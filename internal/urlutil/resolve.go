// Package urlutil resolves, normalizes and classifies the URLs found while
// crawling a site.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// Resolve turns a link found on a page into an absolute URL using baseURL.
//
// A link containing ":" is already absolute (or a non-http scheme such as
// mailto:) and is returned as is. A protocol-relative link borrows the base
// scheme, a query-only link replaces the base query, and anything else is
// treated as a path on the base host. The fragment is always dropped.
// Resolve never fails; malformed input yields a best-effort string.
func Resolve(link, baseURL string) string {
	link = strings.TrimSpace(link)

	if strings.Contains(link, ":") {
		return StripFragment(link)
	}

	scheme, host := "http", ""
	base, err := url.Parse(baseURL)
	if err == nil {
		if base.Scheme != "" {
			scheme = base.Scheme
		}
		host = base.Host
	}

	if strings.HasPrefix(link, "//") {
		return StripFragment(scheme + ":" + link)
	}

	if strings.HasPrefix(link, "?") {
		b := StripFragment(baseURL)
		if i := strings.Index(b, "?"); i >= 0 {
			b = b[:i]
		}
		return StripFragment(b + link)
	}

	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return StripFragment(scheme + "://" + host + link)
}

// StripFragment removes a trailing "#..." part.
func StripFragment(u string) string {
	if i := strings.Index(u, "#"); i >= 0 {
		return u[:i]
	}
	return u
}

// Normalize returns the key under which a URL is recorded as visited.
// The fragment is removed, scheme and host are lowercased and an empty path
// becomes "/". Unparseable input is returned without its fragment.
func Normalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return StripFragment(rawURL)
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}

// Hostname returns the lowercased host of rawURL without its port.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SameOrigin reports whether a and b are on the same host. Ports and schemes
// are not distinguished.
func SameOrigin(a, b string) bool {
	ha := Hostname(a)
	return ha != "" && ha == Hostname(b)
}

// OriginBase returns "scheme://host" of rawURL.
func OriginBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// IsHTTP reports whether rawURL has an http or https scheme.
func IsHTTP(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

var imageExtensions = map[string]bool{
	".img": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".svg": true, ".webp": true, ".avif": true,
}

var fileExtensions = map[string]bool{
	".pdf": true, ".jpeg": true,
}

// IsImage reports whether the URL path ends in an image extension.
func IsImage(rawURL string) bool {
	return imageExtensions[extension(rawURL)]
}

// IsFile reports whether the URL path points at a downloadable document.
func IsFile(rawURL string) bool {
	return fileExtensions[extension(rawURL)]
}

func extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}
