package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/cli/ui"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/server"
)

// NewTokenCommand creates the token command
func NewTokenCommand(g *globals) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the serve API",
		Long: `Print a token signed with server.auth_secret, valid for server.token_ttl.

Examples:
  multicast token --subject ci
  curl -H "Authorization: Bearer $(multicast token --subject ci)" localhost:8080/runs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg.Server
			if cfg.AuthSecret == "" {
				err := fmt.Errorf("server.auth_secret is not set")
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), g.noColor))
				return err
			}

			token, err := server.NewAuthenticator(cfg.AuthSecret, cfg.TokenTTL).IssueToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	return cmd
}
