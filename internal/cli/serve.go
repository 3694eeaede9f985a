package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/code-review-assistant/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			model, err := newModel(cfg, logger)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, model, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}
}
