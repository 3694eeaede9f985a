package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/code-review-assistant/internal/auth"
	"github.com/sakif/code-review-assistant/internal/llm"
	"github.com/sakif/code-review-assistant/internal/server"
	"github.com/sakif/code-review-assistant/internal/service"
)

func newReviewCmd(opts *globalOptions) *cobra.Command {
	var id auth.Identity

	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Review one file and append it to a user's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id.Subject == "" {
				return usageError{errors.New("--subject is required")}
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if len(content) == 0 {
				return usageError{fmt.Errorf("%s is empty", args[0])}
			}

			cfg, logger, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			model, err := newModel(cfg, logger)
			if err != nil {
				return err
			}
			db, err := server.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			identities := service.NewIdentityService(db, logger)
			reviews := service.NewReviewService(
				identities,
				service.NewHistoryService(db, logger),
				llm.WithTimeout(model, cfg.ModelTimeout),
				logger,
			)

			result, err := reviews.ReviewCode(cmd.Context(), id, content, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&id.Subject, "subject", "", "user subject to review as (required)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email recorded when the user is created")
	cmd.Flags().StringVar(&id.DisplayName, "name", "", "display name recorded when the user is created")
	return cmd
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a user's stored reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return usageError{errors.New("--subject is required")}
			}

			cfg, logger, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, err := server.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			history, err := service.NewHistoryService(db, logger).History(cmd.Context(), subject)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), history)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "user subject (required)")
	return cmd
}
