package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/elsatrace/internal/config"
	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/logging"
	"github.com/roach88/elsatrace/internal/store"
	"github.com/roach88/elsatrace/internal/trace"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigPath string

	// Config is loaded on first use when nil.
	Config *config.Config
	// Source overrides the live Elsa client.
	Source trace.Source
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the elsatrace CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "elsatrace",
		Short: "elsatrace - workflow execution traces for Elsa",
		Long: `Reconstruct the causal execution graph and merged timeline of an Elsa
workflow instance from its activity summaries, execution report and journal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			return setupLogging(cmd, cfg, opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./elsatrace.yaml)")

	cmd.AddCommand(NewInstancesCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewNodeCommand(opts))
	cmd.AddCommand(NewCaptureCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) config() (*config.Config, error) {
	if o.Config != nil {
		return o.Config, nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg
	return cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// liveSource returns the configured Source, or an Elsa client.
func (o *RootOptions) liveSource(cfg *config.Config) trace.Source {
	if o.Source != nil {
		return o.Source
	}
	return elsa.NewClient(cfg.Client())
}

// source returns the latest capture of instanceID when db is set, or the
// live source otherwise. captureID is empty for live reads.
func (o *RootOptions) source(ctx context.Context, cfg *config.Config, db, instanceID string) (src trace.Source, captureID string, err error) {
	if db == "" {
		return o.liveSource(cfg), "", nil
	}

	st, err := store.Open(db)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	c, err := st.LatestCapture(ctx, instanceID)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to read capture", err)
	}
	slog.Debug("replaying capture", "capture", c.ID, "instance", instanceID, "captured_at", c.CapturedAt)
	return store.NewSnapshot(c), c.ID, nil
}

func setupLogging(cmd *cobra.Command, cfg *config.Config, verbose bool) error {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	slog.SetDefault(logger)
	return nil
}
