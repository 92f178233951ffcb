package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goanalyst/adapters/api"
	"goanalyst/internal/migration"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := opts.newContainer(cmd, true)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			if port != "" {
				c.Config.Server.Port = port
			}
			server, err := api.NewServer(api.Dependencies{
				Analyzer: c.Analyzer,
				Models:   c.Models,
				Config:   c.Config,
				Logger:   c.Logger.With("API"),
			})
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the model store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open migrates as part of initialization
			c, err := opts.newContainer(cmd, true)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			runner := migration.NewRunner()
			applied, err := runner.Applied(cmd.Context(), c.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema %s applied: %t (%s)\n", runner.Version(), applied, c.Config.Store.Driver)
			return nil
		},
	}
}
