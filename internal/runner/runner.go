// Package runner drives a sync: every work item of a definition is dispatched
// in declared order and its outcome reported. A failing item never stops the
// items after it.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/logging"
	"github.com/systmms/opsync/internal/metrics"
	"github.com/systmms/opsync/internal/template"
)

// Materializer writes file work items.
type Materializer interface {
	Materialize(ctx context.Context, item config.WorkItem) error
}

// Renderer writes template work items.
type Renderer interface {
	Render(ctx context.Context, item config.WorkItem) (template.Result, error)
}

// Runner processes work items.
type Runner struct {
	materializer Materializer
	renderer     Renderer
	reporter     logging.Reporter
	metrics      *metrics.SyncMetrics
	now          func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records item and lookup outcomes into m.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now, used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner.
func New(materializer Materializer, renderer Renderer, reporter logging.Reporter, opts ...Option) *Runner {
	r := &Runner{
		materializer: materializer,
		renderer:     renderer,
		reporter:     reporter,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ItemFailure is a work item that did not produce its destination.
type ItemFailure struct {
	Item config.WorkItem
	Err  error
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failures  []ItemFailure
}

// Failed returns the number of failed items.
func (s Summary) Failed() int {
	return len(s.Failures)
}

// OK reports whether no item failed. Skipped items do not count as failures.
func (s Summary) OK() bool {
	return len(s.Failures) == 0
}

// Run processes every item of def in order.
func (r *Runner) Run(ctx context.Context, def *config.Definition) Summary {
	var summary Summary
	if def == nil {
		return summary
	}

	for _, item := range def.Items {
		summary.Total++

		if !item.Known() {
			r.reporter.Warn("Skipping %s: unknown type %q", item.Name, item.Type)
			r.metrics.RecordItem(item.Type, metrics.StatusSkipped, 0)
			summary.Skipped++
			continue
		}

		step := itemStep(item)
		start := r.now()

		r.reporter.Progress(step)
		err := r.process(ctx, item)
		elapsed := r.now().Sub(start)

		if err != nil {
			r.reporter.Failure(step, err)
			r.metrics.RecordItem(item.Type, metrics.StatusFailure, elapsed)
			summary.Failures = append(summary.Failures, ItemFailure{Item: item, Err: err})
			continue
		}

		r.reporter.Success(step)
		r.metrics.RecordItem(item.Type, metrics.StatusSuccess, elapsed)
		summary.Succeeded++
	}

	r.metrics.Finish(r.now())
	return summary
}

func (r *Runner) process(ctx context.Context, item config.WorkItem) error {
	switch item.Type {
	case config.TypeFile:
		return r.materializer.Materialize(ctx, item)
	case config.TypeTemplate:
		res, err := r.renderer.Render(ctx, item)
		r.metrics.RecordLookups(res.Lookups-len(res.Failures), len(res.Failures))
		return err
	}
	return errors.New("unsupported item type " + item.Type)
}

func itemStep(item config.WorkItem) logging.Step {
	step := logging.Step{
		Item:        item.Name,
		Type:        item.Type,
		Destination: item.Destination,
	}
	if item.Type == config.TypeTemplate {
		step.Source = item.Source
	}
	return step
}
