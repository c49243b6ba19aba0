// Package aggregate combines per-page analysis into a site-wide result:
// duplicate page groups, keyword rankings and run timing.
package aggregate

import (
	"sort"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

// Aggregate builds a SiteResult from pages. start is the moment the run
// began and is used for TotalTime. Pages are kept in the given order.
func Aggregate(startURL string, pages []*model.PageRecord, start time.Time) *model.SiteResult {
	result := model.NewSiteResult(startURL)
	for _, p := range pages {
		if p != nil {
			result.Pages = append(result.Pages, p)
		}
	}

	result.DuplicatePages = DuplicateGroups(result.Pages)
	result.Keywords = Keywords(result.Pages)
	result.TotalTime = time.Since(start).Seconds()
	return result
}

// DuplicateGroups groups the URLs of pages sharing a content hash. Only
// groups with at least two distinct URLs are returned. Groups are ordered
// by first occurrence and keep page order inside.
func DuplicateGroups(pages []*model.PageRecord) [][]string {
	groups := make(map[string][]string)
	var order []string

	for _, p := range pages {
		urls, ok := groups[p.ContentHash]
		if !ok {
			order = append(order, p.ContentHash)
		}
		if !contains(urls, p.URL) {
			groups[p.ContentHash] = append(urls, p.URL)
		}
	}

	dups := [][]string{}
	for _, hash := range order {
		if urls := groups[hash]; len(urls) >= 2 {
			dups = append(dups, urls)
		}
	}
	return dups
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Keywords sums unigram, bigram and trigram counts over all pages and
// returns every term whose total exceeds model.KeywordThreshold, sorted by
// count descending. The three n-gram sizes are summed separately, so a
// bigram never merges with a unigram. Equal counts list unigrams, then
// bigrams, then trigrams, each alphabetically.
func Keywords(pages []*model.PageRecord) []model.Keyword {
	unigrams := make(map[string]int)
	bigrams := make(map[string]int)
	trigrams := make(map[string]int)

	for _, p := range pages {
		merge(unigrams, p.WordCounts)
		merge(bigrams, p.Bigrams)
		merge(trigrams, p.Trigrams)
	}

	keywords := []model.Keyword{}
	for _, counts := range []map[string]int{unigrams, bigrams, trigrams} {
		keywords = append(keywords, aboveThreshold(counts)...)
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})
	return keywords
}

func merge(dst, src map[string]int) {
	for term, n := range src {
		dst[term] += n
	}
}

// aboveThreshold returns the terms of counts above the threshold in
// alphabetical order, which makes the stable sort deterministic.
func aboveThreshold(counts map[string]int) []model.Keyword {
	out := make([]model.Keyword, 0)
	for term, n := range counts {
		if n > model.KeywordThreshold {
			out = append(out, model.Keyword{Term: term, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}
