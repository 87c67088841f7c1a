package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnjalSotang/cinescope/internal/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health",
		Long:  "Run the health check and display credential and cache state.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel)
	srv := newServer(cfg, logger)

	payload, err := srv.Call(context.Background(), "health", nil)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	// Round-trip through JSON so the rendering only depends on the
	// tool's public payload shape.
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode health payload: %w", err)
	}
	var health struct {
		Status           string `json:"status"`
		APIKeyConfigured bool   `json:"tmdb_api_key_configured"`
		CacheEntries     int    `json:"cache_entries"`
		TimestampUTC     string `json:"timestamp_utc"`
	}
	if err := json.Unmarshal(data, &health); err != nil {
		return fmt.Errorf("decode health payload: %w", err)
	}

	fmt.Println(styleHeader.Render("CineScope"))
	fmt.Printf("%s %s\n", styleDim.Render("status:"), styleSuccess.Render(health.Status))
	if health.APIKeyConfigured {
		fmt.Printf("%s %s\n", styleDim.Render("tmdb key:"), styleSuccess.Render("configured"))
	} else {
		fmt.Printf("%s %s\n", styleDim.Render("tmdb key:"), styleError.Render("missing"))
	}
	fmt.Printf("%s %s\n", styleDim.Render("cache:"), styleInfo.Render(fmt.Sprintf("%d entries", health.CacheEntries)))
	fmt.Printf("%s %s\n", styleDim.Render("checked:"), health.TimestampUTC)
	return nil
}
