package model

// SiteResult is the outcome of analyzing one site. It is derived entirely
// from Pages at the end of a run.
type SiteResult struct {
	// StartURL is the homepage the run was seeded with.
	StartURL string `json:"start_url"`

	Pages []*PageRecord `json:"pages"`

	// DuplicatePages groups URLs (two or more) that share a content hash.
	DuplicatePages [][]string `json:"duplicate_pages"`

	// Keywords are unigrams, bigrams and trigrams with an aggregate count
	// above KeywordThreshold, sorted by count descending.
	Keywords []Keyword `json:"keywords"`

	// Errors lists pages that could not be fetched. Always non-nil.
	Errors []string `json:"errors"`

	// TotalTime is the wall-clock duration of the run in seconds.
	TotalTime float64 `json:"total_time"`

	// CrawlMetrics is set when link following or sitemap seeding ran.
	CrawlMetrics *CrawlMetrics `json:"crawl_metrics,omitempty"`
}

// KeywordThreshold is the aggregate count a term must exceed to be reported.
const KeywordThreshold = 4

// NewSiteResult returns an empty, well-formed result for startURL.
func NewSiteResult(startURL string) *SiteResult {
	return &SiteResult{
		StartURL:       startURL,
		Pages:          []*PageRecord{},
		DuplicatePages: [][]string{},
		Keywords:       []Keyword{},
		Errors:         []string{},
	}
}

// WarningCount returns the total number of warnings over all pages.
func (r *SiteResult) WarningCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Warnings)
	}
	return n
}

// Page returns the page record for url, or nil.
func (r *SiteResult) Page(url string) *PageRecord {
	for _, p := range r.Pages {
		if p.URL == url {
			return p
		}
	}
	return nil
}

// CrawlMetrics counts what happened to every work item of a crawl.
type CrawlMetrics struct {
	// Pages is the number of successfully parsed pages.
	Pages            int `json:"pages"`
	Fetched          int `json:"fetched"`
	Failed           int `json:"failed"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	SkippedByRobots  int `json:"skipped_by_robots"`
	SkippedFiltered  int `json:"skipped_filtered"`
	SitemapSeeds     int `json:"sitemap_seeds"`
}

// WorkItem is one URL accepted for expansion at a given depth.
type WorkItem struct {
	Depth int
	URL   string
}
