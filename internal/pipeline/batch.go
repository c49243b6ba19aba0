package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seoscan/internal/aggregate"
	"github.com/nao1215/seoscan/internal/config"
)

// BatchProcessor analyzes several sites concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// It is kept apart from Pipeline so that a pipeline stays about one site.
type BatchProcessor struct {
	cfg *config.Config

	// pipelineFactory creates a fresh pipeline for each site, so no step
	// state leaks between sites.
	pipelineFactory func(site config.Site) *Pipeline

	// concurrency is the maximum number of sites analyzed at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent site analyses.
// Non-positive values keep the configured batch size.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor for the targets of cfg.
func NewBatchProcessor(cfg *config.Config, pipelineFactory func(site config.Site) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		cfg:             cfg,
		pipelineFactory: pipelineFactory,
		concurrency:     max(cfg.BatchSize, 1),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// analyze runs the pipeline of one site under the configured deadline and
// guarantees that the returned run carries a result.
func (bp *BatchProcessor) analyze(ctx context.Context, target string) *Run {
	if bp.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bp.cfg.Deadline)
		defer cancel()
	}

	run := NewRun(bp.cfg.ForSite(target))
	if err := bp.pipelineFactory(run.Site).Execute(ctx, run); err != nil {
		bp.logger.Warn("analysis finished with error",
			"site", target,
			"error", err,
		)
	}
	if run.Result == nil {
		run.Result = aggregate.Aggregate(target, run.Pages, run.Started)
		for _, err := range run.Failures {
			run.Result.Errors = append(run.Result.Errors, err.Error())
		}
	}
	return run
}

// ProcessBatch analyzes every target, at most concurrency at a time, and
// returns the runs in target order.
//
// Failures of one site never stop the others; the returned error is only
// set when ctx ended before every site started, and the runs of sites
// that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*Run, error) {
	bp.logger.Info("starting analysis",
		"sites", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	runs := make([]*Run, len(targets))

	err := bp.ProcessBatchWithCallback(ctx, targets, func(run *Run, index int) {
		// Each index is written by exactly one goroutine.
		runs[index] = run
	})

	bp.logger.Info("analysis complete",
		"sites", len(targets),
		"elapsed", time.Since(startTime),
	)

	return runs, err
}

// ProcessBatchWithCallback analyzes every target and calls callback as each
// site finishes. The callback is called from the goroutine that analyzed
// the site, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(run *Run, index int),
) error {
	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("analyzing site",
				"site", target,
				"index", i+1,
				"total", len(targets),
			)

			run := bp.analyze(ctx, target)
			callback(run, i)

			bp.logger.Info("site analyzed",
				"site", target,
				"pages", len(run.Result.Pages),
				"errors", len(run.Result.Errors),
			)
			return nil
		})
	}

	return g.Wait()
}
