package pipeline

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/crawler"
	"github.com/nao1215/seoscan/internal/database"
	"github.com/nao1215/seoscan/internal/fetch"
	"github.com/nao1215/seoscan/internal/model"
)

// Deps are the resources shared by every site of an invocation.
type Deps struct {
	// Client is the HTTP client used for every request. nil means a
	// default client.
	Client *http.Client

	// Archive, when set, receives every finished result.
	Archive *database.Archive

	// Metrics, when set, records crawl outcomes.
	Metrics *crawler.Metrics

	Logger *slog.Logger
}

// FetchSettingsFrom derives the request settings of cfg.
func FetchSettingsFrom(cfg *config.Config, client *http.Client) FetchSettings {
	return FetchSettings{
		Client: client,
		Policy: fetch.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Timeout:     cfg.Timeout,
			Backoff:     cfg.Backoff,
		},
		MaxBodySize: cfg.MaxBodySize,
	}
}

// Factory returns a function building the pipeline of one site.
//
// A site that neither follows links nor has a sitemap is analyzed with a
// single request; everything else is crawled.
func Factory(cfg *config.Config, deps Deps) func(site config.Site) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fs := FetchSettingsFrom(cfg, deps.Client)

	return func(site config.Site) *Pipeline {
		p := New(WithLogger(logger), WithContinueOnError(true))

		if !site.FollowLinks && site.SitemapURL == "" {
			p.AddStep(NewSinglePageStep(fs, logger))
		} else {
			p.AddStep(NewCrawlStep(fs,
				WithCrawlDelay(cfg.CrawlDelay),
				WithCrawlRobotsTimeout(cfg.RobotsTimeout),
				WithCrawlParseWorkers(cfg.ParseWorkers),
				WithCrawlMetrics(deps.Metrics),
				WithCrawlLogger(logger),
			))
		}
		p.AddStep(NewAggregateStep())
		if deps.Archive != nil {
			p.AddStep(NewArchiveStep(deps.Archive, logger))
		}
		return p
	}
}

// Analyze crawls and analyzes the site at startURL. It always returns a
// well-formed result: unreachable pages end up in the result's error list
// and a cancelled run returns what was collected until then.
func Analyze(ctx context.Context, cfg *config.Config, startURL string, deps Deps) *model.SiteResult {
	bp := NewBatchProcessor(cfg, Factory(cfg, deps), WithBatchLogger(deps.Logger))
	return bp.analyze(ctx, startURL).Result
}
