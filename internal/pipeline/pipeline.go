package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/model"
)

// Run is the state of one site analysis as it moves through the pipeline.
// Steps read the site settings and fill in pages, failures and finally the
// result.
type Run struct {
	// Site holds the effective settings for this start URL.
	Site config.Site

	// Started is when the run began; TotalTime is measured from it.
	Started time.Time

	// Pages are the parsed pages in completion order.
	Pages []*model.PageRecord

	// Failures are the pages that could not be fetched.
	Failures []error

	// Metrics is set by steps that crawled.
	Metrics *model.CrawlMetrics

	// Result is set by the aggregate step.
	Result *model.SiteResult

	// ArchiveID is the archive row of this run, when archived.
	ArchiveID int64

	// TimedOut reports that the context ended before the run finished.
	TimedOut bool

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string
}

// NewRun creates the run state for one site.
func NewRun(site config.Site) *Run {
	return &Run{
		Site:    site,
		Started: time.Now(),
		Pages:   make([]*model.PageRecord, 0),
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the run state
// accumulated by the previous steps.
type Step interface {
	// Do executes the pipeline step. Page level problems are recorded in
	// the run; an error means the step itself could not do its job.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. A failed archive write, for example, should not
// hide the report of an otherwise finished run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
//
// Cancellation is checked between steps; steps handle their own timeouts.
// Steps that report RunsAfterCancel still run after a cancellation so a
// partial result is always aggregated.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	var firstErr error
	for _, step := range p.steps {
		if ctx.Err() != nil && !runsAfterCancel(step) {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			run.TimedOut = true
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			continue
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"site", run.Site.StartURL,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"site", run.Site.StartURL,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return firstErr
			}
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return firstErr
}

// finalizer is implemented by steps that must run even when the context
// has ended.
type finalizer interface {
	RunsAfterCancel() bool
}

func runsAfterCancel(step Step) bool {
	f, ok := step.(finalizer)
	return ok && f.RunsAfterCancel()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
