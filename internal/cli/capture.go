package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/elsatrace/internal/config"
	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/store"
	"github.com/roach88/elsatrace/internal/trace"
)

// historyConcurrency bounds the per-node history reads of one capture.
const historyConcurrency = 4

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	Database   string
	InstanceID string
	Nodes      []string // empty means every summarised node
}

// CaptureResult describes a stored capture.
type CaptureResult struct {
	CaptureID  string    `json:"capture_id"`
	InstanceID string    `json:"instance_id"`
	CapturedAt time.Time `json:"captured_at"`
	Payloads   int       `json:"payloads"`
	Failed     int       `json:"failed"`
	Nodes      []string  `json:"nodes"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Store the raw API payloads of a workflow instance",
		Long: `Fetch every payload needed to trace a workflow instance and store them
in a SQLite database, so the trace can be replayed later with --db.

Failed reads are stored with their error, and replay shows the same partial
view. Per-node execution history is captured for every summarised node unless
--node narrows it down.

Examples:
  elsatrace capture --instance 3f2a... --db ./captures.db
  elsatrace capture --instance 3f2a... --db ./captures.db --node WriteLine1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InstanceID, "instance", "", "workflow instance id (required)")
	_ = cmd.MarkFlagRequired("instance")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringSliceVar(&opts.Nodes, "node", nil, "capture history only for these nodes")

	return cmd
}

func runCapture(opts *CaptureOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	formatter := opts.formatter(cmd)
	formatter.VerboseLog("Capturing instance %s into %s", opts.InstanceID, opts.Database)

	capture, fetched, err := collectCapture(ctx, opts.liveSource(cfg), cfg, opts.InstanceID, opts.Nodes)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build capture", err)
	}

	id, err := st.WriteCapture(ctx, capture)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write capture", err)
	}
	slog.Info("capture stored", "capture", id, "instance", capture.InstanceID, "payloads", len(capture.Payloads))

	result := CaptureResult{
		CaptureID:  id,
		InstanceID: capture.InstanceID,
		CapturedAt: capture.CapturedAt,
		Payloads:   len(capture.Payloads),
		Nodes:      []string{},
	}
	for _, p := range capture.Payloads {
		if p.Err != "" {
			result.Failed++
		}
		if p.Kind == elsa.OpActivityExecutions {
			result.Nodes = append(result.Nodes, p.NodeID)
		}
	}

	if opts.Format == "text" {
		outputCaptureText(cmd.OutOrStdout(), result)
	} else if err := formatter.Success(result); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if err := fetched.FirstError(); err != nil {
		return WrapExitError(ExitFailure, "captured a failed load", err)
	}
	return nil
}

// collectCapture fetches the instance panels, then the history of each node.
func collectCapture(ctx context.Context, src trace.Source, cfg *config.Config, instanceID string, nodes []string) (store.Capture, *trace.Fetched, error) {
	fetched := trace.Fetch(ctx, src, instanceID, trace.FetchOptions{JournalPage: cfg.JournalPage()})

	c := store.Capture{
		ID:         store.NewCaptureID(),
		InstanceID: instanceID,
		CapturedAt: time.Now().UTC(),
	}
	for _, panel := range []struct {
		kind string
		p    trace.Panel
	}{
		{elsa.OpWorkflowInstance, fetched.Instance},
		{elsa.OpJournal, fetched.Journal},
		{elsa.OpExecutionState, fetched.ExecutionState},
		{elsa.OpActivitySummaries, fetched.Summaries},
		{elsa.OpExecutionReport, fetched.Report},
	} {
		p, err := newPayload(panel.kind, "", panel.p)
		if err != nil {
			return store.Capture{}, nil, err
		}
		c.Payloads = append(c.Payloads, p)
	}

	if len(nodes) == 0 {
		nodes = summarisedNodes(fetched.Summaries.Data)
	}
	history := make([]store.Payload, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)
	for i, node := range nodes {
		g.Go(func() error {
			data, err := src.ActivityExecutions(gctx, instanceID, node)
			p, perr := newPayload(elsa.OpActivityExecutions, node, trace.Panel{Data: data, Err: err})
			history[i] = p
			return perr
		})
	}
	if err := g.Wait(); err != nil {
		return store.Capture{}, nil, err
	}
	c.Payloads = append(c.Payloads, history...)
	return c, fetched, nil
}

// summarisedNodes lists the distinct reported node ids in summary order.
func summarisedNodes(summaries any) []string {
	seen := map[string]bool{}
	var ids []string
	for _, s := range record.List(summaries) {
		id, ok := record.NonEmptyString(s, record.NodeID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func newPayload(kind, nodeID string, p trace.Panel) (store.Payload, error) {
	if p.Err != nil {
		return store.Payload{Kind: kind, NodeID: nodeID, Err: p.Err.Error()}, nil
	}
	body, err := json.Marshal(p.Data)
	if err != nil {
		return store.Payload{}, fmt.Errorf("encode %s: %w", kind, err)
	}
	return store.Payload{Kind: kind, NodeID: nodeID, Body: body}, nil
}

func outputCaptureText(w io.Writer, result CaptureResult) {
	fmt.Fprintf(w, "Captured %s for instance %s\n", result.CaptureID, result.InstanceID)
	fmt.Fprintf(w, "  Payloads: %d (%d failed)\n", result.Payloads, result.Failed)
	fmt.Fprintf(w, "  Nodes:    %d\n", len(result.Nodes))
}
