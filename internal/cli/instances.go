package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/elsatrace/internal/trace"
)

// InstancesOptions holds flags for the instances command.
type InstancesOptions struct {
	*RootOptions
	Skip int
	Take int
}

// NewInstancesCommand creates the instances command.
func NewInstancesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstancesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List workflow instances",
		Long: `List one page of workflow instances as picker entries:

  <name> (<status> · <HH:MM:SS>) - <id>

Examples:
  elsatrace instances
  elsatrace instances --skip 50 --take 50 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstances(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "instances to skip")
	cmd.Flags().IntVar(&opts.Take, "take", 0, "page size (default from config)")

	return cmd
}

func runInstances(opts *InstancesOptions, cmd *cobra.Command) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if opts.Skip < 0 || opts.Take < 0 {
		return NewExitError(ExitCommandError, "--skip and --take must not be negative")
	}

	page := cfg.InstancesPage()
	page.Skip = opts.Skip
	if opts.Take > 0 {
		page.Take = opts.Take
	}

	catalog := trace.NewCatalog(opts.liveSource(cfg), trace.CatalogOptions{})
	options, err := catalog.Options(cmd.Context(), page)
	if err != nil {
		if opts.Format != "text" {
			_ = opts.formatter(cmd).Error(CodeUpstream, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "failed to list instances", err)
	}

	if opts.Format == "text" {
		outputInstancesText(cmd.OutOrStdout(), options)
		return nil
	}
	if err := opts.formatter(cmd).Success(options); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}

func outputInstancesText(w io.Writer, options []trace.InstanceOption) {
	if len(options) == 0 {
		fmt.Fprintln(w, "No instances found")
		return
	}
	for _, o := range options {
		fmt.Fprintln(w, o.Label)
	}
}
