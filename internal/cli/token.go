package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/show-logic-core/internal/api"
)

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Long: `Signs a bearer token with security.jwt.secret for a control surface.
The lifetime defaults to security.jwt.token_ttl minutes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Security.JWT.TokenTTL) * time.Minute
			}

			token, err := api.IssueToken(cfg.Security.JWT.Secret, subject, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "Name of the surface the token is for")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (overrides security.jwt.token_ttl)")
	return cmd
}
