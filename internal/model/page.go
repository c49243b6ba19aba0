package model

import (
	"crypto/sha1" //nolint:gosec // content hash is used for duplicate detection only
	"encoding/hex"
)

// MaxTopKeywords is the number of unigram keywords kept per page.
const MaxTopKeywords = 5

// PageRecord is the analysis result of one successfully fetched and parsed page.
// It is created once by the parser and is not modified afterwards.
type PageRecord struct {
	// URL is the URL the page was requested with.
	URL string `json:"url"`

	// Title is the trimmed text of the first <title> element.
	Title string `json:"title"`

	// Description is the trimmed content of <meta name="description">.
	Description string `json:"description"`

	// Author, Sitename and Date come from meta tags and are backfilled from
	// a readability extraction when the page does not declare them.
	Author   string `json:"author"`
	Hostname string `json:"hostname"`
	Sitename string `json:"sitename"`
	Date     string `json:"date"`

	// Slug is the last clean path segment of URL; Categories are the
	// path segments before it.
	Slug       string   `json:"slug,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// WordCount is the number of tokens in the unfiltered token stream.
	WordCount int `json:"word_count"`

	// TopKeywords holds at most MaxTopKeywords stopword-filtered unigrams.
	TopKeywords []Keyword `json:"keywords"`

	// WordCounts holds every stopword-filtered unigram count of the page.
	// It feeds the site aggregate and is not part of the page JSON.
	WordCounts map[string]int `json:"-"`

	Bigrams  map[string]int `json:"bigrams"`
	Trigrams map[string]int `json:"trigrams"`

	// Warnings are human readable SEO problems in a fixed order.
	Warnings []string `json:"warnings"`

	// ContentHash is the SHA-1 hex digest of the raw fetched bytes.
	ContentHash string `json:"content_hash"`

	// Links are the sorted, unique, same-origin absolute URLs found on the page.
	Links []string `json:"links"`

	// Headings maps h1..h6 to the text of each occurrence. Only present when
	// heading analysis is enabled.
	Headings map[string][]string `json:"headings,omitempty"`

	// AdditionalTags maps extra meta/link targets to raw attribute values.
	// Only present when extra tag analysis is enabled.
	AdditionalTags map[string][]string `json:"additional_info,omitempty"`
}

// Keyword is a term and its occurrence count.
type Keyword struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ComputeHash returns the hex SHA-1 digest of raw page bytes.
// Byte-identical inputs always produce the same hash.
func ComputeHash(raw []byte) string {
	sum := sha1.Sum(raw) //nolint:gosec // not used for security
	return hex.EncodeToString(sum[:])
}

// HasWarning reports whether the page carries a warning of the given category.
func (p *PageRecord) HasWarning(c WarningCategory) bool {
	for _, w := range p.Warnings {
		if ClassifyWarning(w) == c {
			return true
		}
	}
	return false
}
