package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/x4vfs/log"
)

// Exporter writes one group of tables.
type Exporter interface {
	// Name returns the identifier name defined for this exporter
	Name() string
	// Export creates its tables and inserts its rows into sink.
	Export(ctx context.Context, sink Sink) error
}

type RunnerOptions struct {
	Logger *log.Logger
	RunID  uuid.UUID
}

type RunnerOption func(*RunnerOptions) error

func newDefaultRunnerOptions() *RunnerOptions {
	return &RunnerOptions{
		Logger: log.NewNopLogger(),
	}
}

func WithLogger(logger *log.Logger) RunnerOption {
	return func(opts *RunnerOptions) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}

// WithRunID fixes the id recorded for the run instead of a random one.
func WithRunID(id uuid.UUID) RunnerOption {
	return func(opts *RunnerOptions) error {
		if id == uuid.Nil {
			return fmt.Errorf("run id cannot be nil")
		}
		opts.RunID = id
		return nil
	}
}

// Runner executes exporters in order inside the sink transaction.
type Runner struct {
	log       *log.Logger
	runID     uuid.UUID
	exporters []Exporter
}

func NewRunner(exporters []Exporter, opts ...RunnerOption) (*Runner, error) {
	options := newDefaultRunnerOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	runID := options.RunID
	if runID == uuid.Nil {
		var err error
		if runID, err = uuid.NewRandom(); err != nil {
			return nil, err
		}
	}

	return &Runner{
		log:       options.Logger,
		runID:     runID,
		exporters: exporters,
	}, nil
}

// RunID identifies this run in the Common table.
func (r *Runner) RunID() uuid.UUID {
	return r.runID
}

// Run executes every exporter and commits. The first failing exporter rolls
// the whole run back.
func (r *Runner) Run(ctx context.Context, sink Sink) error {
	start := time.Now()
	steps := len(r.exporters) + 1

	r.log.Info("[1/%d] Exporting common", steps)
	if err := r.exportCommon(ctx, sink); err != nil {
		return r.abort(ctx, sink, "common", err)
	}

	for i, exporter := range r.exporters {
		if err := ctx.Err(); err != nil {
			return r.abort(ctx, sink, exporter.Name(), err)
		}

		r.log.Info("[%d/%d] Exporting %s", i+2, steps, exporter.Name())
		if err := exporter.Export(ctx, sink); err != nil {
			return r.abort(ctx, sink, exporter.Name(), err)
		}
	}

	if err := sink.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}

	r.log.Info("Export %s completed in %s", r.runID, time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Runner) abort(ctx context.Context, sink Sink, step string, err error) error {
	if rerr := sink.Rollback(ctx); rerr != nil {
		r.log.Warn("Failed to roll back export: %v", rerr)
	}
	return fmt.Errorf("export step '%s' failed: %w", step, err)
}
