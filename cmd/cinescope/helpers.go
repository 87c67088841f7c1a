package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AnjalSotang/cinescope/internal/config"
	"github.com/AnjalSotang/cinescope/internal/mcp"
	"github.com/AnjalSotang/cinescope/internal/tmdb"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// newServer builds the metadata provider and the MCP server around it.
func newServer(cfg *config.Config, logger *slog.Logger) *mcp.Server {
	var provider *tmdb.Client
	if cfg.TMDb.BaseURL != "" {
		provider = tmdb.NewWithBaseURL(cfg.TMDb.APIKey, cfg.TMDb.BaseURL, logger)
	} else {
		provider = tmdb.New(cfg.TMDb.APIKey, logger)
	}

	if !provider.Configured() {
		logger.Warn("TMDB API key not set; data operations will return CONFIG_ERROR")
	}

	ttl := time.Duration(cfg.App.CacheTTLSeconds) * time.Second
	return mcp.NewServer(provider, ttl, logger)
}
