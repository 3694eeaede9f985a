package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/code-review-assistant/internal/auth"
)

// newTokenCmd mints a bearer token signed with JWT_SECRET, for calling a
// local server without the identity provider.
func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		id  auth.Identity
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id.Subject == "" {
				return usageError{errors.New("--subject is required")}
			}
			if ttl <= 0 {
				return usageError{errors.New("--ttl must be positive")}
			}

			cfg, _, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := cfg.RequireJWTSecret(); err != nil {
				return err
			}
			tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
			if err != nil {
				return err
			}

			token, err := tokens.Issue(id, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&id.Subject, "subject", "", "token subject (required)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.DisplayName, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
