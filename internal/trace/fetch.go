package trace

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/elsatrace/internal/elsa"
)

// Panel is the outcome of one read: the decoded payload or its error.
type Panel struct {
	Data any
	Err  error
}

// OK reports whether the read succeeded.
func (p Panel) OK() bool { return p.Err == nil }

// Fetched holds the per-instance reads of one load.
type Fetched struct {
	InstanceID     string
	Instance       Panel
	Journal        Panel
	ExecutionState Panel
	Summaries      Panel
	Report         Panel
}

// FirstError returns the first failed read in the order instance, journal,
// summaries, report, execution state.
func (f *Fetched) FirstError() error {
	for _, p := range []Panel{f.Instance, f.Journal, f.Summaries, f.Report, f.ExecutionState} {
		if p.Err != nil {
			return p.Err
		}
	}
	return nil
}

// FetchOptions tunes a fetch.
type FetchOptions struct {
	// JournalPage selects the journal page; the zero value is the first
	// page with the client's default size.
	JournalPage elsa.Page
}

// Fetch issues the five per-instance reads concurrently and waits for all of
// them. It never fails as a whole: each read's error stays in its Panel.
func Fetch(ctx context.Context, src Source, instanceID string, opts FetchOptions) *Fetched {
	f := &Fetched{InstanceID: instanceID}

	var g errgroup.Group
	read := func(op string, dst *Panel, fn func(context.Context) (any, error)) {
		g.Go(func() error {
			start := time.Now()
			slog.Debug("fetch started", "op", op, "instance", instanceID)

			data, err := fn(ctx)
			*dst = Panel{Data: data, Err: err}

			if err != nil {
				slog.Warn("fetch failed",
					"op", op,
					"instance", instanceID,
					"error", err,
				)
				return nil
			}
			slog.Debug("fetch finished",
				"op", op,
				"instance", instanceID,
				"duration", time.Since(start),
			)
			return nil
		})
	}

	read(elsa.OpWorkflowInstance, &f.Instance, func(ctx context.Context) (any, error) {
		return src.WorkflowInstance(ctx, instanceID)
	})
	read(elsa.OpJournal, &f.Journal, func(ctx context.Context) (any, error) {
		return src.Journal(ctx, instanceID, opts.JournalPage)
	})
	read(elsa.OpExecutionState, &f.ExecutionState, func(ctx context.Context) (any, error) {
		return src.ExecutionState(ctx, instanceID)
	})
	read(elsa.OpActivitySummaries, &f.Summaries, func(ctx context.Context) (any, error) {
		return src.ActivitySummaries(ctx, instanceID)
	})
	read(elsa.OpExecutionReport, &f.Report, func(ctx context.Context) (any, error) {
		return src.ExecutionReport(ctx, instanceID)
	})

	_ = g.Wait() // reads never return an error to the group
	return f
}
