package aggregate

import (
	"slices"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/model"
)

func page(url, body string, words map[string]int) *model.PageRecord {
	return &model.PageRecord{
		URL:         url,
		ContentHash: model.ComputeHash([]byte(body)),
		WordCounts:  words,
	}
}

func TestDuplicateGroups(t *testing.T) {
	t.Parallel()

	t.Run("identical bytes at different URLs form one group", func(t *testing.T) {
		t.Parallel()

		pages := []*model.PageRecord{
			page("https://example.com/a", "<p>same</p>", nil),
			page("https://example.com/unique", "<p>other</p>", nil),
			page("https://example.com/b", "<p>same</p>", nil),
		}
		got := DuplicateGroups(pages)
		want := [][]string{{"https://example.com/a", "https://example.com/b"}}
		if len(got) != 1 || !slices.Equal(got[0], want[0]) {
			t.Errorf("DuplicateGroups() = %v, want %v", got, want)
		}
	})

	t.Run("single unique page produces no group", func(t *testing.T) {
		t.Parallel()

		got := DuplicateGroups([]*model.PageRecord{page("https://example.com/", "x", nil)})
		if got == nil || len(got) != 0 {
			t.Errorf("DuplicateGroups() = %v, want empty non-nil", got)
		}
	})

	t.Run("same URL twice is not a duplicate", func(t *testing.T) {
		t.Parallel()

		got := DuplicateGroups([]*model.PageRecord{
			page("https://example.com/", "x", nil),
			page("https://example.com/", "x", nil),
		})
		if len(got) != 0 {
			t.Errorf("DuplicateGroups() = %v, want none", got)
		}
	})
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	t.Run("threshold is strictly above four", func(t *testing.T) {
		t.Parallel()

		pages := []*model.PageRecord{
			{WordCounts: map[string]int{"four": 2, "five": 3}},
			{WordCounts: map[string]int{"four": 2, "five": 2}},
		}
		got := Keywords(pages)
		want := []model.Keyword{{Term: "five", Count: 5}}
		if !slices.Equal(got, want) {
			t.Errorf("Keywords() = %v, want %v", got, want)
		}
	})

	t.Run("n-gram sizes are kept apart and sorted by count", func(t *testing.T) {
		t.Parallel()

		pages := []*model.PageRecord{
			{
				WordCounts: map[string]int{"go": 6},
				Bigrams:    map[string]int{"go go": 9},
				Trigrams:   map[string]int{"go go go": 7},
			},
			{
				WordCounts: map[string]int{"go": 1, "rust": 5},
			},
		}
		got := Keywords(pages)
		want := []model.Keyword{
			{Term: "go go", Count: 9},
			{Term: "go", Count: 7},
			{Term: "go go go", Count: 7},
			{Term: "rust", Count: 5},
		}
		if !slices.Equal(got, want) {
			t.Errorf("Keywords() = %v, want %v", got, want)
		}
	})

	t.Run("no pages yields empty non-nil list", func(t *testing.T) {
		t.Parallel()

		if got := Keywords(nil); got == nil || len(got) != 0 {
			t.Errorf("Keywords(nil) = %v", got)
		}
	})
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	start := time.Now().Add(-50 * time.Millisecond)
	pages := []*model.PageRecord{
		page("https://example.com/a", "dup", map[string]int{"seo": 5}),
		nil,
		page("https://example.com/b", "dup", nil),
	}

	res := Aggregate("https://example.com/", pages, start)

	if len(res.Pages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(res.Pages))
	}
	if len(res.DuplicatePages) != 1 {
		t.Errorf("expected 1 duplicate group, got %v", res.DuplicatePages)
	}
	if !slices.Equal(res.Keywords, []model.Keyword{{Term: "seo", Count: 5}}) {
		t.Errorf("Keywords = %v", res.Keywords)
	}
	if res.TotalTime < 0.05 {
		t.Errorf("TotalTime = %v, want at least 0.05", res.TotalTime)
	}
	if res.Errors == nil {
		t.Error("Errors must be non-nil")
	}
	if res.StartURL != "https://example.com/" {
		t.Errorf("StartURL = %q", res.StartURL)
	}
}
