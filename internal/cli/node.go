package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/trace"
)

// NodeOptions holds flags for the node command.
type NodeOptions struct {
	*RootOptions
	Database   string
	InstanceID string
	NodeID     string
}

// NodeResult is the detail of one selected node.
type NodeResult struct {
	Selection trace.Selection `json:"selection"`
	State     trace.State     `json:"state"`
	Detail    *trace.Detail   `json:"detail"`
}

// NewNodeCommand creates the node command.
func NewNodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "node",
		Short: "Show one activity node and its execution history",
		Long: `Load a workflow instance, select one activity node and fetch its
execution history.

The node must appear in the reconstructed graph or be referenced by a journal
event. A failed history read is reported without hiding the node itself.

Examples:
  elsatrace node --instance 3f2a... --node WriteLine1
  elsatrace node --instance 3f2a... --node WriteLine1 --db ./captures.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InstanceID, "instance", "", "workflow instance id (required)")
	_ = cmd.MarkFlagRequired("instance")
	cmd.Flags().StringVar(&opts.NodeID, "node", "", "activity node id (required)")
	_ = cmd.MarkFlagRequired("node")
	cmd.Flags().StringVar(&opts.Database, "db", "", "replay the latest capture from this SQLite database")

	return cmd
}

func runNode(opts *NodeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	src, captureID, err := opts.source(ctx, cfg, opts.Database, opts.InstanceID)
	if err != nil {
		return err
	}

	session := trace.NewSession(src, trace.SessionOptions{Load: loadOptions(cfg, 0)})
	if err := session.Open(opts.InstanceID); err != nil {
		return WrapExitError(ExitCommandError, "invalid instance", err)
	}
	view, err := session.Load(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load instance", err)
	}
	if err := session.Select(opts.NodeID); err != nil {
		if errors.Is(err, trace.ErrNodeNotFound) && view.State == trace.StateError {
			return NewExitError(ExitFailure, view.Error)
		}
		if opts.Format != "text" {
			_ = opts.formatter(cmd).Error(CodeNodeNotFound, err.Error(), map[string]string{
				"instance": opts.InstanceID,
				"node":     opts.NodeID,
			})
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot select node %q", opts.NodeID), err)
	}

	detail, err := session.Detail(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to resolve node", err)
	}

	result := NodeResult{
		Selection: session.Selection(),
		State:     view.State,
		Detail:    detail,
	}
	if opts.Format == "text" {
		outputNodeText(cmd.OutOrStdout(), result)
	} else if err := opts.formatter(cmd).SuccessFrom(captureID, result); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if detail.Error != "" {
		return NewExitError(ExitFailure, detail.Error)
	}
	return nil
}

// outputNodeText outputs a node detail as text.
func outputNodeText(w io.Writer, result NodeResult) {
	d := result.Detail
	fmt.Fprintf(w, "Node: %s\n", d.NodeID)
	fmt.Fprintf(w, "Instance: %s (%s)\n", d.InstanceID, result.State.Label())
	fmt.Fprintf(w, "Type: %s\n", d.TypeLabel)
	if n := d.Node; n != nil {
		fmt.Fprintf(w, "Name: %s\n", n.Name)
		fmt.Fprintf(w, "Status: %s\n", n.StatusLabel)
		fmt.Fprintf(w, "Window: %s\n", n.TimeLabel(time.UTC))
	} else {
		fmt.Fprintln(w, "Name: (no summary)")
	}
	fmt.Fprintln(w)

	if d.Error != "" {
		fmt.Fprintf(w, "History error: %s\n", d.Error)
		return
	}
	executions := record.List(d.Executions)
	fmt.Fprintf(w, "=== Executions (%d) ===\n", len(executions))
	if len(executions) == 0 {
		fmt.Fprintln(w, "  (no executions)")
	}
	for _, e := range executions {
		fmt.Fprintf(w, "  %s %s\n",
			record.String(e, record.ID, "?"),
			record.String(e, record.Status, "Unknown"))
	}
}
