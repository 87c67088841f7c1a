package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "cinescope",
		Short: "Movie and TV metadata tools for LLM agents",
		Long: "CineScope is an MCP server that grounds a conversational agent in live\n" +
			"movie/TV metadata: title search, recommendations and filtered discovery\n" +
			"backed by TMDB, with caching and retries built in.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/cinescope.yaml", "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newQueryCmd(),
		newStatusCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("CineScope v%s\n", version)
		},
	}
}
