package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AnjalSotang/cinescope/internal/config"
)

// newQueryCmd returns the "query" subcommand: a one-shot tool call
// straight through the dispatcher, useful for trying out the tools
// without an MCP client.
func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <tool> [json-args]",
		Short: "Invoke a single tool call",
		Example: `  cinescope query search_title '{"query":"Inception","type":"movie"}'
  cinescope query discover '{"type":"tv","sort_by":"vote_average"}'
  cinescope query health`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			rawArgs := "{}"
			if len(args) == 2 {
				rawArgs = args[1]
			}
			return runQuery(args[0], rawArgs)
		},
	}
}

func runQuery(tool, rawArgs string) error {
	if !json.Valid([]byte(rawArgs)) {
		return fmt.Errorf("arguments must be a JSON object: %s", rawArgs)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel)
	srv := newServer(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	payload, err := srv.Call(ctx, tool, json.RawMessage(rawArgs))
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(pretty))
	return nil
}
