package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/elsatrace/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve traces over HTTP",
		Long: `Start the JSON API over the configured Elsa server.

Routes:
  GET /api/instances
  GET /api/instances/:id/trace
  GET /api/instances/:id/nodes/:node
  GET /healthz
  GET /metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	addr := opts.Listen
	if addr == "" {
		addr = cfg.Listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(opts.liveSource(cfg), server.Options{
		Load:          loadOptions(cfg, 0),
		InstancesPage: cfg.InstancesPage(),
	})
	if err := srv.Run(ctx, addr); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
