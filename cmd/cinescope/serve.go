package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AnjalSotang/cinescope/internal/config"
)

// newServeCmd returns the "serve" subcommand: the MCP server over
// stdin/stdout, which is how the agent harness talks to CineScope.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := config.SetupLogger(cfg.App.LogLevel)
			srv := newServer(cfg, logger)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger.Info("starting MCP server", "transport", "stdio")
			return srv.ServeStdio(ctx)
		},
	}
}
