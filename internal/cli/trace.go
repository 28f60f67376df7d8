package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/elsatrace/internal/config"
	"github.com/roach88/elsatrace/internal/graph"
	"github.com/roach88/elsatrace/internal/timeline"
	"github.com/roach88/elsatrace/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	InstanceID string
	NodeID     string // optional - filter the timeline to one node
	Lanes      int
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	InstanceID  string           `json:"instance_id"`
	State       trace.State      `json:"state"`
	Error       string           `json:"error,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Nodes       []graph.Node     `json:"nodes"`
	Edges       []graph.Edge     `json:"edges"`
	Timeline    []timeline.Entry `json:"timeline"`
	Stats       TraceStats       `json:"stats"`
}

// TraceStats holds summary counts for the trace.
type TraceStats struct {
	Nodes          int `json:"nodes"`
	Edges          int `json:"edges"`
	HighConfidence int `json:"high_confidence"`
	Events         int `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Reconstruct the execution trace of a workflow instance",
		Long: `Load one workflow instance and reconstruct its execution trace.

The output includes:
- Nodes: activity nodes in chronological order with status and grid position
- Edges: inferred causal edges with their confidence
- Timeline: journal events, newest first, annotated with their activity

With --db the latest stored capture of the instance is replayed instead of
calling the Elsa API.

Examples:
  elsatrace trace --instance 3f2a...
  elsatrace trace --instance 3f2a... --node WriteLine1
  elsatrace trace --instance 3f2a... --db ./captures.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InstanceID, "instance", "", "workflow instance id (required)")
	_ = cmd.MarkFlagRequired("instance")
	cmd.Flags().StringVar(&opts.Database, "db", "", "replay the latest capture from this SQLite database")
	cmd.Flags().StringVar(&opts.NodeID, "node", "", "filter the timeline to one activity node")
	cmd.Flags().IntVar(&opts.Lanes, "lanes", 0, "grid lanes (default from config)")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	src, captureID, err := opts.source(ctx, cfg, opts.Database, opts.InstanceID)
	if err != nil {
		return err
	}

	view := trace.Load(ctx, src, opts.InstanceID, loadOptions(cfg, opts.Lanes))
	if view.State == trace.StateIdle {
		return NewExitError(ExitCommandError, "instance id is blank")
	}
	result := buildTraceResult(view, opts.NodeID)

	if opts.Format == "text" {
		if captureID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Replaying capture: %s\n", captureID)
		}
		outputTraceText(cmd.OutOrStdout(), result, opts.NodeID)
	} else if err := opts.formatter(cmd).SuccessFrom(captureID, result); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if view.State == trace.StateError {
		return NewExitError(ExitFailure, view.Error)
	}
	return nil
}

func loadOptions(cfg *config.Config, lanes int) trace.LoadOptions {
	if lanes < 1 {
		lanes = cfg.Lanes
	}
	return trace.LoadOptions{
		Fetch: trace.FetchOptions{JournalPage: cfg.JournalPage()},
		Graph: []graph.Option{graph.WithLanes(lanes)},
	}
}

// buildTraceResult flattens a view. When nodeID is set only that node's
// timeline entries are kept.
func buildTraceResult(view *trace.View, nodeID string) TraceResult {
	result := TraceResult{
		InstanceID: view.InstanceID,
		State:      view.State,
		Error:      view.Error,
		Nodes:      []graph.Node{},
		Edges:      []graph.Edge{},
		Timeline:   []timeline.Entry{},
	}

	if r := view.Reconstruction; r != nil {
		result.Fingerprint = r.Fingerprint
		if r.Graph != nil {
			result.Nodes = r.Graph.Nodes
			result.Edges = r.Graph.Edges
		}
		result.Timeline = r.Timeline
		if nodeID != "" {
			result.Timeline = timeline.Filter(r.Timeline, nodeID)
		}
	}

	result.Stats = TraceStats{
		Nodes:  len(result.Nodes),
		Edges:  len(result.Edges),
		Events: len(result.Timeline),
	}
	for _, e := range result.Edges {
		if e.Confidence == graph.High {
			result.Stats.HighConfidence++
		}
	}
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, nodeID string) {
	fmt.Fprintf(w, "Trace for Instance: %s\n", result.InstanceID)
	fmt.Fprintf(w, "State: %s\n", result.State.Label())
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Nodes ===")
	if len(result.Nodes) == 0 {
		fmt.Fprintln(w, "  (no nodes)")
	}
	for _, n := range result.Nodes {
		fmt.Fprintf(w, "  %s %s (%s) %s @%d,%d\n",
			n.ID, n.Name, n.StatusLabel, n.TimeLabel(time.UTC), n.Position.Column, n.Position.Row)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Edges ===")
	if len(result.Edges) == 0 {
		fmt.Fprintln(w, "  (no edges)")
	}
	for _, e := range result.Edges {
		fmt.Fprintf(w, "  %s -> %s [%s]\n", e.SourceID, e.TargetID, e.Confidence)
	}
	fmt.Fprintln(w)

	if nodeID != "" {
		fmt.Fprintf(w, "=== Timeline (%s) ===\n", nodeID)
	} else {
		fmt.Fprintln(w, "=== Timeline ===")
	}
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Timeline {
		formatTimelineEntry(w, e)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Nodes:  %d\n", result.Stats.Nodes)
	fmt.Fprintf(w, "  Edges:  %d (%d high confidence)\n", result.Stats.Edges, result.Stats.HighConfidence)
	fmt.Fprintf(w, "  Events: %d\n", result.Stats.Events)
}

// formatTimelineEntry formats a single timeline entry for text output.
func formatTimelineEntry(w io.Writer, e timeline.Entry) {
	at := "n/a"
	if e.Timestamp != nil {
		at = e.Timestamp.UTC().Format("15:04:05")
	}
	if e.Activity == nil {
		fmt.Fprintf(w, "  %s %s\n", at, e.EventName)
		return
	}
	fmt.Fprintf(w, "  %s %s %s %s (%s)\n", at, e.EventName, e.NodeID, e.Activity.Name, e.Activity.StatusLabel)
}
