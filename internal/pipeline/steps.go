package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/ghsubfinder/internal/model"
	"github.com/nao1215/ghsubfinder/internal/pattern"
	"github.com/nao1215/ghsubfinder/internal/report"
)

// Runner performs the discovery run. *crawler.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, target string, pat *pattern.Pattern) (*model.RunReport, error)
}

// RunStore records finished runs. *database.HistoryDB implements it.
type RunStore interface {
	SaveRun(ctx context.Context, report *model.RunReport) (int64, error)
}

// CrawlStep runs the search-and-fetch loop and fills the report with the
// domains found.
//
// Design decision: The crawl step returns the run error (credential
// exhaustion, cancellation) but the caller adds it as Optional so the
// partial result still reaches the history and output steps. The report's
// Exhausted and Interrupted flags tell the caller what happened.
type CrawlStep struct {
	runner  Runner
	pattern *pattern.Pattern
}

// NewCrawlStep creates a crawl step searching with pat.
func NewCrawlStep(runner Runner, pat *pattern.Pattern) *CrawlStep {
	return &CrawlStep{runner: runner, pattern: pat}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, r *model.RunReport) error {
	res, err := s.runner.Run(ctx, r.Target, s.pattern)
	if res != nil {
		performed := r.PerformedSteps
		*r = *res
		r.PerformedSteps = performed
	}
	return err
}

// HistoryStep stores the run in the history database.
type HistoryStep struct {
	store  RunStore
	logger *slog.Logger
}

// HistoryStepOption configures a HistoryStep.
type HistoryStepOption func(*HistoryStep)

// WithHistoryLogger sets a custom logger for the history step.
func WithHistoryLogger(logger *slog.Logger) HistoryStepOption {
	return func(s *HistoryStep) {
		s.logger = logger
	}
}

// NewHistoryStep creates a history step writing to store.
func NewHistoryStep(store RunStore, opts ...HistoryStepOption) *HistoryStep {
	s := &HistoryStep{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step. It detaches from ctx cancellation so an
// interrupted run is still recorded.
func (s *HistoryStep) Do(ctx context.Context, r *model.RunReport) error {
	if s.store == nil {
		return errors.New("history store is not configured")
	}

	id, err := s.store.SaveRun(context.WithoutCancel(ctx), r)
	if err != nil {
		return err
	}
	r.HistoryRunID = id

	s.logger.Debug("run recorded", "target", r.Target, "run_id", id, "domains", len(r.Domains))
	return nil
}

// OutputStep writes the deliverable file.
type OutputStep struct {
	path    string
	format  report.Format
	version string
}

// NewOutputStep creates an output step writing format to path.
func NewOutputStep(path string, format report.Format, version string) *OutputStep {
	return &OutputStep{
		path:    path,
		format:  format,
		version: version,
	}
}

// Name returns the step name.
func (s *OutputStep) Name() string {
	return "output"
}

// Do executes the output step. Failures wrap report.ErrOutputWrite.
func (s *OutputStep) Do(_ context.Context, r *model.RunReport) error {
	r.OutputPath = s.path
	if err := report.WriteFile(s.path, s.format, s.version, r); err != nil {
		r.OutputPath = ""
		return err
	}
	return nil
}

// ScanPipeline assembles the standard scan pipeline: crawl, then record
// history (when store is non-nil), then write the output file.
//
// Crawl and history failures are recorded and do not stop the pipeline;
// a failure to write the output does. History and output run even after
// an interrupt.
func ScanPipeline(runner Runner, pat *pattern.Pattern, store RunStore, out *OutputStep, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddStep(NewCrawlStep(runner, pat), Optional())
	if store != nil {
		p.AddStep(NewHistoryStep(store, WithHistoryLogger(p.logger)), Optional(), EvenIfCancelled())
	}
	p.AddStep(out, EvenIfCancelled())

	return p
}
