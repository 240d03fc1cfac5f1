package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/ghsubfinder/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// report from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. Tests can substitute any step with a stub
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the report to modify.
	Do(ctx context.Context, report *model.RunReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// StepOption configures how the pipeline treats one step.
type StepOption func(*entry)

// Optional marks a step whose failure is logged and recorded in the report
// but does not stop the pipeline.
func Optional() StepOption {
	return func(e *entry) {
		e.optional = true
	}
}

// EvenIfCancelled marks a step that still runs after the context has been
// cancelled. Steps that persist partial results use it.
func EvenIfCancelled() StepOption {
	return func(e *entry) {
		e.evenIfCancelled = true
	}
}

type entry struct {
	step            Step
	optional        bool
	evenIfCancelled bool
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []entry

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]entry, 0),
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
func (p *Pipeline) AddStep(step Step, opts ...StepOption) {
	e := entry{step: step}
	for _, opt := range opts {
		opt(&e)
	}
	p.steps = append(p.steps, e)
}

// Execute runs all pipeline steps in sequence.
//
// Design decision: We check ctx.Done() before each step rather than
// during, because steps handle their own cancellation. Once the context is
// cancelled only steps added with EvenIfCancelled still run, so partial
// results reach disk after an interrupt.
//
// The first failure of a required step is returned immediately. Failures
// of optional steps are recorded in report.Error (first one wins) and the
// pipeline moves on.
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	for _, e := range p.steps {
		name := e.step.Name()

		if ctx.Err() != nil {
			report.Interrupted = true
			if !e.evenIfCancelled {
				p.logger.Debug("step skipped after cancellation", "step", name)
				continue
			}
		}

		p.logger.Debug("executing step", "step", name, "target", report.Target)

		if err := e.step.Do(ctx, report); err != nil {
			p.recordError(report, err)

			if !e.optional {
				p.logger.Error("step failed", "step", name, "target", report.Target, "error", err)
				return err
			}
			p.logger.Warn("step failed, continuing", "step", name, "target", report.Target, "error", err)
		} else {
			p.logger.Debug("step completed", "step", name, "target", report.Target)
		}

		report.PerformedSteps = append(report.PerformedSteps, name)
	}

	return nil
}

func (p *Pipeline) recordError(report *model.RunReport, err error) {
	if report.Error != nil {
		return
	}
	report.Error = err
	report.ErrorMessage = err.Error()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, e := range p.steps {
		names[i] = e.step.Name()
	}
	return names
}
