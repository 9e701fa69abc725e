package commands

import (
	"fmt"

	"chatdock/internal/errors"
	"chatdock/internal/server"

	"github.com/spf13/cobra"
)

// ServeCommand runs the local HTTP API in the foreground
func ServeCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `Serve the launcher over HTTP on localhost. Launches are started with
POST /api/launch and progress is streamed on the /api/events websocket.
Stopping the server stops the container when stop_on_exit is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Service == nil {
				return errors.New(errors.ErrInternal, "launch service is not available")
			}

			cfg := server.ConfigFromSettings(deps.Settings)
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				cfg.Host = host
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				cfg.Port = port
			}

			srv := server.New(cfg, server.Deps{
				Service:  deps.Service,
				Ports:    deps.Ports,
				Launches: deps.Launches,
				DB:       deps.DB,
				Settings: deps.Settings,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "chatdock API listening on http://%s:%d\n", cfg.Host, cfg.Port)
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().String("host", "", "Address to bind (default from settings)")
	cmd.Flags().IntP("port", "p", 0, "Port to bind (default from settings)")
	return cmd
}
