package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/cli/ui"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/server"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

// NewServeCommand creates the serve command
func NewServeCommand(g *globals) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Long: `Expose the runs persisted by "resolve --save" over a read-only JSON API:

  GET /runs                          runs, most recent first
  GET /runs/{id}                     a run with its bindings and diagnostics
  GET /runs/{id}/bindings?target=ID  the bindings of one declaration
  GET /metrics                       Prometheus metrics
  GET /healthz                       liveness

When server.auth_secret is set, /runs requires a bearer token issued by
"multicast token".

Examples:
  multicast serve
  multicast serve --address 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg.Server
			if address != "" {
				cfg.Address = address
			}

			if g.cfg.Store.Driver == "" {
				err := fmt.Errorf("serve needs a store: set store.driver and store.dsn")
				fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), g.noColor))
				return err
			}
			st, err := store.Open(cmd.Context(), g.cfg.Store)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.StoreError(err.Error(), g.noColor))
				return err
			}
			defer st.Close()

			opts := server.RouterOptions{Logger: g.logger}
			if cfg.AuthSecret != "" {
				opts.Auth = server.NewAuthenticator(cfg.AuthSecret, cfg.TokenTTL)
			}
			srv, err := server.New(cfg, server.NewRouter(st, opts), g.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, srv, g.noColor)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}

func serve(ctx context.Context, cmd *cobra.Command, srv *server.Server, noColor bool) error {
	if err := srv.Listen(); err != nil {
		return err
	}
	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("serving on http://%s", srv.Addr()), noColor)
	return srv.Run(ctx)
}
