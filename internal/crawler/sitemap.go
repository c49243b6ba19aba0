package crawler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/antchfx/xmlquery"
)

// sitemapKind tells how a sitemap body is read.
type sitemapKind int

const (
	sitemapUnknown sitemapKind = iota
	sitemapXML
	sitemapText
)

// classifySitemap decides the sitemap format from its URL and body. A
// ".txt" path is a plain list; an ".xml" path or a body that looks like XML
// is parsed for <loc> elements.
func classifySitemap(sitemapURL string, body []byte) sitemapKind {
	ext := ""
	if u, err := url.Parse(sitemapURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	switch ext {
	case ".txt":
		return sitemapText
	case ".xml":
		return sitemapXML
	}

	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.HasPrefix(head, []byte("<?xml")) ||
		bytes.Contains(head, []byte("<urlset")) ||
		bytes.Contains(head, []byte("<sitemapindex")) {
		return sitemapXML
	}
	return sitemapUnknown
}

// parseSitemap extracts page URLs from a sitemap body.
func parseSitemap(sitemapURL string, body []byte) ([]string, error) {
	switch classifySitemap(sitemapURL, body) {
	case sitemapXML:
		return parseSitemapXML(body)
	case sitemapText:
		return parseSitemapText(body), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSitemap, sitemapURL)
	}
}

func parseSitemapXML(body []byte) ([]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap xml: %w", err)
	}

	var locs []string
	for _, n := range xmlquery.Find(doc, "//*[local-name()='loc']") {
		if loc := strings.TrimSpace(n.InnerText()); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

func parseSitemapText(body []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// sitemapSeeds fetches sitemapURL and returns its URLs. Any failure is
// returned to the caller, which treats it as non-fatal.
func (s *Spider) sitemapSeeds(ctx context.Context, sitemapURL string) ([]string, error) {
	resp, err := s.fetcher.Get(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}
	return parseSitemap(sitemapURL, resp.Body)
}
