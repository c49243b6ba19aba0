package parser

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/urlutil"
)

// Options selects the optional parts of the analysis.
type Options struct {
	// AnalyzeHeadings collects the text of h1..h6 elements.
	AnalyzeHeadings bool

	// AnalyzeExtraTags collects viewport, charset, canonical, alternate and
	// Open Graph values.
	AnalyzeExtraTags bool

	// ContentType is the response Content-Type, used to pick a decoder.
	// Empty means the charset is sniffed from the markup.
	ContentType string

	// SkipMetadata disables the readability backfill of author, site name
	// and date.
	SkipMetadata bool
}

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// extraTag is one additional meta/link target. text selects element text
// instead of an attribute.
type extraTag struct {
	key      string
	selector string
	attr     string
	text     bool
}

var extraTags = []extraTag{
	{key: "title", selector: "title", text: true},
	{key: "meta_desc", selector: `meta[name="description"]`, attr: "content"},
	{key: "viewport", selector: `meta[name="viewport"]`, attr: "content"},
	{key: "charset", selector: "meta[charset]", attr: "charset"},
	{key: "canonical", selector: `link[rel="canonical"]`, attr: "href"},
	{key: "alt_href", selector: `link[rel="alternate"]`, attr: "href"},
	{key: "alt_hreflang", selector: `link[rel="alternate"]`, attr: "hreflang"},
	{key: "og_title", selector: `meta[property="og:title"]`, attr: "content"},
	{key: "og_desc", selector: `meta[property="og:description"]`, attr: "content"},
	{key: "og_url", selector: `meta[property="og:url"]`, attr: "content"},
	{key: "og_image", selector: `meta[property="og:image"]`, attr: "content"},
}

// Parse analyzes one fetched page. It never fails: malformed markup
// produces a best-effort record with empty fields.
func Parse(pageURL string, raw []byte, opts Options) *model.PageRecord {
	page := &model.PageRecord{
		URL:         pageURL,
		ContentHash: model.ComputeHash(raw),
		Hostname:    urlutil.Hostname(pageURL),
		Slug:        urlutil.Slug(pageURL),
		Categories:  urlutil.Categories(pageURL),
	}

	markup := decode(raw, opts.ContentType)
	root := parseDocument(markup)
	doc := goquery.NewDocumentFromNode(root)

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	page.Description = metaContent(doc, "name", "description")

	tokens := Tokenize(visibleText(root))
	filtered := FilterStopwords(tokens)
	page.WordCount = len(tokens)
	page.WordCounts = Count(filtered)
	page.Bigrams = Count(NGrams(tokens, 2))
	page.Trigrams = Count(NGrams(tokens, 3))
	page.TopKeywords = TopKeywords(page.WordCounts, model.MaxTopKeywords)

	anchors := collectAnchors(doc, pageURL)
	page.Links = internalLinks(anchors)
	page.Warnings = warnings(doc, page, anchors)

	if opts.AnalyzeHeadings {
		page.Headings = headings(doc)
	}
	if opts.AnalyzeExtraTags {
		page.AdditionalTags = additionalTags(doc)
	}

	page.Author = metaContent(doc, "name", "author")
	page.Sitename = metaContent(doc, "property", "og:site_name")
	page.Date = metaContent(doc, "property", "article:published_time")
	if !opts.SkipMetadata {
		backfillMetadata(page, markup)
	}

	return page
}

// metaContent returns the trimmed content of the first <meta> whose attr
// equals value, ignoring case.
func metaContent(doc *goquery.Document, attr, value string) string {
	content := ""
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attr)
		if !ok || !strings.EqualFold(strings.TrimSpace(v), value) {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})
	return content
}

// anchor is one <a href> of the page.
type anchor struct {
	href     string
	resolved string
	text     string
	title    string
	internal bool
}

func collectAnchors(doc *goquery.Document, pageURL string) []anchor {
	var anchors []anchor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		resolved := urlutil.Resolve(href, pageURL)
		anchors = append(anchors, anchor{
			href:     href,
			resolved: resolved,
			text:     strings.ToLower(strings.TrimSpace(s.Text())),
			title:    s.AttrOr("title", ""),
			internal: urlutil.IsHTTP(resolved) && urlutil.SameOrigin(pageURL, resolved),
		})
	})
	return anchors
}

// internalLinks returns the sorted, unique same-origin page links. Images
// and downloadable files are not pages and are left out.
func internalLinks(anchors []anchor) []string {
	seen := make(map[string]struct{})
	links := []string{}
	for _, a := range anchors {
		if !a.internal || urlutil.IsImage(a.resolved) || urlutil.IsFile(a.resolved) {
			continue
		}
		if _, ok := seen[a.resolved]; ok {
			continue
		}
		seen[a.resolved] = struct{}{}
		links = append(links, a.resolved)
	}
	sort.Strings(links)
	return links
}

func headings(doc *goquery.Document) map[string][]string {
	out := make(map[string][]string)
	for _, tag := range headingTags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			out[tag] = append(out[tag], strings.TrimSpace(s.Text()))
		})
	}
	return out
}

func additionalTags(doc *goquery.Document) map[string][]string {
	out := make(map[string][]string)
	for _, t := range extraTags {
		doc.Find(t.selector).Each(func(_ int, s *goquery.Selection) {
			if t.text {
				out[t.key] = append(out[t.key], s.Text())
				return
			}
			if v, ok := s.Attr(t.attr); ok {
				out[t.key] = append(out[t.key], v)
			}
		})
	}
	return out
}
