package crawler

import (
	"context"
	"sync"
	"time"

	cerrors "cloudeng.io/errors"
	"golang.org/x/time/rate"

	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/robots"
	"github.com/nao1215/seoscan/internal/urlutil"
)

// crawlState is the state of one Crawl call. It is shared by the workers
// of that call and discarded when Crawl returns.
type crawlState struct {
	homepage string
	policy   *robots.Policy
	delay    time.Duration

	// mu guards visited, pages and metrics.
	mu      sync.Mutex
	visited map[string]struct{}
	pages   []*model.PageRecord
	metrics model.CrawlMetrics

	// failures collects per-page fetch errors. errors.M is safe for
	// concurrent use.
	failures cerrors.M

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

func newCrawlState(homepage string, policy *robots.Policy, delay time.Duration) *crawlState {
	return &crawlState{
		homepage: homepage,
		policy:   policy,
		delay:    delay,
		visited:  make(map[string]struct{}),
		pages:    make([]*model.PageRecord, 0),
		limiters: make(map[string]*rate.Limiter),
	}
}

// markIfNotVisited records rawURL as visited and reports whether this call
// was the one that recorded it. Check and insert happen under one lock so
// two workers can never both win for the same URL.
func (s *crawlState) markIfNotVisited(rawURL string) bool {
	key := urlutil.Normalize(rawURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[key]; ok {
		return false
	}
	s.visited[key] = struct{}{}
	return true
}

func (s *crawlState) isVisited(rawURL string) bool {
	key := urlutil.Normalize(rawURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[key]
	return ok
}

func (s *crawlState) addPage(p *model.PageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, p)
	s.metrics.Pages++
}

// count applies fn to the metrics under the state lock.
func (s *crawlState) count(fn func(m *model.CrawlMetrics)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.metrics)
}

// snapshot returns the pages and metrics collected so far.
func (s *crawlState) snapshot() ([]*model.PageRecord, model.CrawlMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]*model.PageRecord, len(s.pages))
	copy(pages, s.pages)
	return pages, s.metrics
}

// waitTurn blocks until the crawl delay of rawURL's origin has passed since
// the previous request to that origin.
func (s *crawlState) waitTurn(ctx context.Context, rawURL string) error {
	if s.delay <= 0 {
		return nil
	}
	host := urlutil.Hostname(rawURL)

	s.limiterMu.Lock()
	l, ok := s.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.delay), 1)
		s.limiters[host] = l
	}
	s.limiterMu.Unlock()

	return l.Wait(ctx)
}
